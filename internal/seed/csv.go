package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
)

const (
	SubjectsFile     = "subjects.csv"
	TeachersFile     = "teachers.csv"
	GroupsFile       = "groups.csv"
	AvailabilityFile = "availability.csv"
	CurriculumFile   = "curriculum.csv"
	ReservationsFile = "reservations.csv"
)

// LoadDataset 从目录中读取 CSV 文件，不存在的文件视为空表
func LoadDataset(dir string, delim rune) (*Dataset, error) {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.TrimLeadingSpace = true
		return r
	})

	ds := &Dataset{}

	if err := loadFile(filepath.Join(dir, SubjectsFile), &ds.Subjects); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, TeachersFile), &ds.Teachers); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, GroupsFile), &ds.Groups); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, AvailabilityFile), &ds.Availability); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, CurriculumFile), &ds.Curriculum); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, ReservationsFile), &ds.Reservations); err != nil {
		return nil, err
	}

	return ds, nil
}

func loadFile[T any](path string, out *[]*T) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			*out = make([]*T, 0)
			return nil
		}
		return err
	}
	defer file.Close()

	rows := make([]*T, 0)
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			*out = rows
			return nil
		}
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	*out = rows
	return nil
}

func splitNames(s string) []string {
	names := make([]string, 0)
	for _, name := range strings.Split(s, ";") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
