package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isc-horarios/timetable/backend/internal/domain"
	"github.com/isc-horarios/timetable/backend/internal/utils"
)

type memoryStore struct {
	nextID       int64
	cleared      bool
	subjects     []*domain.Subject
	teachers     []*domain.Teacher
	groups       []*domain.Group
	curriculum   []*domain.CurriculumEntry
	availability []*domain.AvailabilityWindow
	reservations []*domain.ModuleReservation
	groupErr     error
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) ClearReferenceData(ctx context.Context) error {
	s.cleared = true
	return nil
}

func (s *memoryStore) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	for _, existing := range s.subjects {
		if existing.Name == subject.Name {
			return &pgconn.PgError{Code: "23505", ConstraintName: "subjects_name_key"}
		}
	}
	subject.ID = s.id()
	s.subjects = append(s.subjects, subject)
	return nil
}

func (s *memoryStore) CreateTeacher(ctx context.Context, teacher *domain.Teacher) error {
	teacher.ID = s.id()
	s.teachers = append(s.teachers, teacher)
	return nil
}

func (s *memoryStore) CreateGroup(ctx context.Context, group *domain.Group) error {
	if s.groupErr != nil {
		return s.groupErr
	}
	group.ID = s.id()
	s.groups = append(s.groups, group)
	return nil
}

func (s *memoryStore) CreateCurriculumEntry(ctx context.Context, entry *domain.CurriculumEntry) error {
	entry.ID = s.id()
	s.curriculum = append(s.curriculum, entry)
	return nil
}

func (s *memoryStore) CreateAvailabilityWindow(ctx context.Context, w *domain.AvailabilityWindow) error {
	w.ID = s.id()
	s.availability = append(s.availability, w)
	return nil
}

func (s *memoryStore) CreateModuleReservation(ctx context.Context, res *domain.ModuleReservation) error {
	res.ID = s.id()
	s.reservations = append(s.reservations, res)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SubjectsFile, "nombre,turno,bloques_duracion\nCálculo,MATUTINO,2\nRedes,VESPERTINO,\n")
	writeFile(t, dir, TeachersFile, "nombre,correo,materias\nAna López,ana@example.com,Cálculo;Redes\n")
	writeFile(t, dir, GroupsFile, "nombre,turno\nISC-1A,MATUTINO\n")
	writeFile(t, dir, AvailabilityFile, "docente,dia,turno,bloque_inicio,bloque_fin\nAna López,LUNES,MATUTINO,1,8\n")
	writeFile(t, dir, CurriculumFile, "grupo,materia,sesiones_por_semana\nISC-1A,Cálculo,2\n")

	ds, err := LoadDataset(dir, ',')
	require.NoError(t, err)

	require.Len(t, ds.Subjects, 2)
	assert.Equal(t, "Cálculo", ds.Subjects[0].Name)
	assert.Empty(t, ds.Subjects[1].Duration)
	require.Len(t, ds.Teachers, 1)
	assert.Equal(t, "Cálculo;Redes", ds.Teachers[0].Subjects)
	require.Len(t, ds.Availability, 1)
	assert.Equal(t, 8, ds.Availability[0].BlockEnd)
	require.Len(t, ds.Curriculum, 1)
	assert.Equal(t, 2, ds.Curriculum[0].SessionsPerWeek)
	assert.Empty(t, ds.Reservations)
}

func TestLoadDatasetSemicolonDelimiter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GroupsFile, "nombre;turno\nISC-1A;MATUTINO\nISC-1B;VESPERTINO\n")

	ds, err := LoadDataset(dir, ';')
	require.NoError(t, err)
	require.Len(t, ds.Groups, 2)
	assert.Equal(t, "VESPERTINO", ds.Groups[1].Shift)
}

func TestImportResolvesNames(t *testing.T) {
	ds := &Dataset{
		Subjects: []*SubjectRow{
			{Name: "Cálculo", Shift: "MATUTINO", Duration: "3"},
			{Name: "Redes", Shift: "VESPERTINO"},
		},
		Teachers: []*TeacherRow{
			{Name: "Ana López", Email: "ana@example.com", Subjects: "Cálculo; Redes ;Desconocida"},
		},
		Groups: []*GroupRow{
			{Name: "ISC-1A", Shift: "MORNING"},
		},
		Availability: []*AvailabilityRow{
			{Teacher: "Ana López", Day: "LUNES", Shift: "MATUTINO", BlockStart: 1, BlockEnd: 8},
		},
		Curriculum: []*CurriculumRow{
			{Group: "ISC-1A", Subject: "Cálculo", SessionsPerWeek: 2},
		},
		Reservations: []*ReservationRow{
			{Group: "ISC-1A", Subject: "Cálculo", Day: "MIÉRCOLES", Shift: "MATUTINO", BlockStart: 1, BlockEnd: 3},
		},
	}
	store := &memoryStore{}

	stats, err := Import(context.Background(), store, ds, true, quietLogger())
	require.NoError(t, err)

	assert.True(t, store.cleared)
	assert.Equal(t, &ImportStats{Subjects: 2, Teachers: 1, Groups: 1, Availability: 1, Curriculum: 1, Reservations: 1}, stats)

	require.Len(t, store.subjects, 2)
	assert.Equal(t, 3, store.subjects[0].Duration)
	assert.Equal(t, domain.DefaultSubjectDuration, store.subjects[1].Duration)
	assert.Equal(t, []int64{store.subjects[0].ID, store.subjects[1].ID}, store.teachers[0].SubjectIDs)
	assert.Equal(t, store.teachers[0].ID, store.availability[0].TeacherID)
	assert.Equal(t, store.groups[0].ID, store.curriculum[0].GroupID)
	assert.Equal(t, domain.DayWednesday, store.reservations[0].Day)
}

func TestImportSkipsInvalidRows(t *testing.T) {
	ds := &Dataset{
		Subjects: []*SubjectRow{
			{Name: "Cálculo", Shift: "MATUTINO"},
			{Name: "Cálculo", Shift: "MATUTINO"},
			{Name: "Física", Shift: "NOCTURNO"},
			{Name: "Ética", Shift: "MATUTINO", Duration: "9"},
		},
		Groups: []*GroupRow{{Name: "ISC-1A", Shift: "MATUTINO"}},
		Availability: []*AvailabilityRow{
			{Teacher: "Nadie", Day: "LUNES", Shift: "MATUTINO", BlockStart: 1, BlockEnd: 2},
		},
		Curriculum: []*CurriculumRow{
			{Group: "ISC-9Z", Subject: "Cálculo", SessionsPerWeek: 1},
		},
		Reservations: []*ReservationRow{
			{Group: "ISC-1A", Subject: "Cálculo", Day: "SABADO", Shift: "MATUTINO", BlockStart: 1, BlockEnd: 2},
			{Group: "ISC-1A", Subject: "Cálculo", Day: "LUNES", Shift: "MATUTINO", BlockStart: 5, BlockEnd: 2},
		},
	}
	store := &memoryStore{}

	stats, err := Import(context.Background(), store, ds, false, quietLogger())
	require.NoError(t, err)

	assert.False(t, store.cleared)
	assert.Equal(t, 1, stats.Subjects)
	assert.Equal(t, 1, stats.Groups)
	assert.Zero(t, stats.Availability)
	assert.Zero(t, stats.Curriculum)
	assert.Zero(t, stats.Reservations)
	assert.Equal(t, 7, stats.Skipped)
}

func TestImportStopsOnStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &memoryStore{groupErr: storeErr}
	ds := &Dataset{Groups: []*GroupRow{{Name: "ISC-1A", Shift: "MATUTINO"}}}

	_, err := Import(context.Background(), store, ds, false, quietLogger())
	assert.ErrorIs(t, err, storeErr)
}

func TestGenerateDemoDatasetImportsCleanly(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ds := GenerateDemoDataset(rng, DefaultDemoOptions())
	store := &memoryStore{}

	stats, err := Import(context.Background(), store, ds, false, quietLogger())
	require.NoError(t, err)
	assert.Zero(t, stats.Skipped)

	ref := &domain.ReferenceData{
		Teachers:     store.teachers,
		Subjects:     store.subjects,
		Groups:       store.groups,
		Curriculum:   store.curriculum,
		Availability: store.availability,
		Reservations: store.reservations,
	}
	report := utils.ValidateReferenceData(ref)
	assert.Empty(t, report.Subjects.Issues)
	assert.Empty(t, report.Curriculum.Issues)
	assert.Empty(t, report.Availability.Issues)

	subjectShift := make(map[int64]domain.Shift)
	for _, s := range store.subjects {
		subjectShift[s.ID] = s.Shift
	}
	groupShift := make(map[int64]domain.Shift)
	for _, g := range store.groups {
		groupShift[g.ID] = g.Shift
	}
	for _, e := range store.curriculum {
		assert.Equal(t, groupShift[e.GroupID], subjectShift[e.SubjectID])
	}
}
