package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

const (
	GeneralSheet = "Horarios"
	EmptySheet   = "Info"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// Excel 对工作表名称的长度限制
	maxSheetNameLength = 31
)

var headers = []any{"Grupo", "Turno", "Día", "Bloque Inicio", "Bloque Fin", "Materia", "Docente", "Correo Docente"}

var shiftNames = map[domain.Shift]string{
	domain.ShiftMorning:   "MATUTINO",
	domain.ShiftAfternoon: "VESPERTINO",
}

// BuildWorkbook 生成包含总表和每个班级单独一张表的工作簿，entries 应已按班级、星期、起始节次排序
func BuildWorkbook(entries []domain.ScheduleEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	if len(entries) == 0 {
		if err := f.SetSheetName(defaultSheet, EmptySheet); err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(EmptySheet, "A1", &[]any{"Info"}); err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(EmptySheet, "A2", &[]any{"No hay horarios generados"}); err != nil {
			return nil, err
		}
		return f, nil
	}

	if err := f.SetSheetName(defaultSheet, GeneralSheet); err != nil {
		return nil, err
	}
	if err := writeSheet(f, GeneralSheet, entries); err != nil {
		return nil, err
	}

	// 按出现顺序把课表拆分到各个班级
	order := make([]string, 0)
	byGroup := make(map[string][]domain.ScheduleEntry)
	for _, e := range entries {
		if _, exists := byGroup[e.GroupName]; !exists {
			order = append(order, e.GroupName)
		}
		byGroup[e.GroupName] = append(byGroup[e.GroupName], e)
	}

	used := map[string]bool{GeneralSheet: true}
	for _, groupName := range order {
		sheet := uniqueSheetName(SheetName(groupName), used)
		used[sheet] = true

		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet, byGroup[groupName]); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// WriteWorkbook 把工作簿直接写入 w
func WriteWorkbook(w io.Writer, entries []domain.ScheduleEntry) error {
	f, err := BuildWorkbook(entries)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, entries []domain.ScheduleEntry) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2) // 跳过表头
		if err != nil {
			return err
		}
		row := []any{
			e.GroupName,
			shiftNames[e.Shift],
			e.Day.String(),
			e.BlockStart,
			e.BlockEnd,
			e.SubjectName,
			e.TeacherName,
			e.TeacherEmail,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return nil
}

// SheetName 替换 Excel 不允许的字符并截断到 31 个字符
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Grupo"
	}

	if utf8.RuneCountInString(name) > maxSheetNameLength {
		name = string([]rune(name)[:maxSheetNameLength])
	}
	return name
}

// 截断后可能重名，此时在末尾加上序号
func uniqueSheetName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf("~%d", i)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetNameLength {
			base = base[:maxSheetNameLength-len(suffix)]
		}
		candidate := string(base) + suffix
		if !used[candidate] {
			return candidate
		}
	}
}
