package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

func completeReferenceData() *domain.ReferenceData {
	return &domain.ReferenceData{
		Teachers: []*domain.Teacher{
			{ID: 1, Name: "Ana López", SubjectIDs: []int64{10}},
			{ID: 2, Name: "Luis Pérez", SubjectIDs: []int64{11}},
		},
		Subjects: []*domain.Subject{
			{ID: 10, Name: "Cálculo", Shift: domain.ShiftMorning, Duration: 2},
			{ID: 11, Name: "Redes", Shift: domain.ShiftAfternoon, Duration: 2},
		},
		Groups: []*domain.Group{
			{ID: 100, Name: "ISC-1A", Shift: domain.ShiftMorning},
			{ID: 101, Name: "ISC-1B", Shift: domain.ShiftAfternoon},
		},
		Curriculum: []*domain.CurriculumEntry{
			{ID: 1, GroupID: 100, SubjectID: 10, SessionsPerWeek: 2},
			{ID: 2, GroupID: 101, SubjectID: 11, SessionsPerWeek: 2},
		},
		Availability: []*domain.AvailabilityWindow{
			{ID: 1, TeacherID: 1, Day: domain.DayMonday, Shift: domain.ShiftMorning, BlockStart: 1, BlockEnd: 8},
			{ID: 2, TeacherID: 2, Day: domain.DayMonday, Shift: domain.ShiftAfternoon, BlockStart: 1, BlockEnd: 8},
		},
	}
}

func TestValidateReferenceDataComplete(t *testing.T) {
	report := ValidateReferenceData(completeReferenceData())

	assert.True(t, report.Valid)
	assert.Zero(t, report.TotalIssues)
	assert.Contains(t, report.Groups.OK, "Matutinos: 1, Vespertinos: 1")
	assert.Equal(t, []string{"Sin reservas (opcional)"}, report.Reservations.OK)
}

func TestValidateReferenceDataEmpty(t *testing.T) {
	report := ValidateReferenceData(&domain.ReferenceData{})

	assert.False(t, report.Valid)
	assert.Equal(t, 5, report.TotalIssues)
	assert.Equal(t, []string{"No hay docentes registrados"}, report.Teachers.Issues)
	assert.Equal(t, []string{"No hay plan de estudios configurado"}, report.Curriculum.Issues)
	assert.Empty(t, report.Reservations.Issues)
}

func TestValidateReferenceDataDetectsGaps(t *testing.T) {
	ref := completeReferenceData()
	ref.Teachers = append(ref.Teachers,
		&domain.Teacher{ID: 3, Name: "Eva Ruiz"},
		&domain.Teacher{ID: 4, Name: "Juan Mora"},
		&domain.Teacher{ID: 5, Name: "Rosa Díaz"},
		&domain.Teacher{ID: 6, Name: "Iván Soto"},
	)
	ref.Subjects = append(ref.Subjects, &domain.Subject{ID: 12, Name: "Ética", Shift: domain.ShiftMorning, Duration: 2})
	ref.Groups = append(ref.Groups, &domain.Group{ID: 102, Name: "ISC-2A", Shift: domain.ShiftMorning})

	report := ValidateReferenceData(ref)

	assert.False(t, report.Valid)
	require.Len(t, report.Teachers.Issues, 1)
	assert.Equal(t, "4 docentes sin materias asignadas: Eva Ruiz, Juan Mora, Rosa Díaz", report.Teachers.Issues[0])
	assert.Equal(t, []string{"1 materias sin docentes: Ética"}, report.Subjects.Issues)
	assert.Equal(t, []string{"1 grupos sin plan: ISC-2A"}, report.Curriculum.Issues)
	require.Len(t, report.Availability.Issues, 1)
	assert.Equal(t, 4, report.TotalIssues)
}

func TestValidateReferenceDataWarningsInvalidate(t *testing.T) {
	ref := completeReferenceData()
	ref.Availability = ref.Availability[:1]
	ref.Reservations = []*domain.ModuleReservation{
		{ID: 1, GroupID: 100, SubjectID: 10, Day: domain.DayTuesday, Shift: domain.ShiftMorning, BlockStart: 1, BlockEnd: 2},
	}

	report := ValidateReferenceData(ref)

	assert.False(t, report.Valid)
	assert.Equal(t, 1, report.TotalIssues)
	assert.Equal(t, []string{"1 docentes sin disponibilidad: Luis Pérez"}, report.Availability.Issues)
	assert.Equal(t, []string{"1 reservas de módulos configuradas"}, report.Reservations.OK)
}
