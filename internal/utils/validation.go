package utils

import (
	"fmt"
	"strings"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// 问题描述中最多列出的名字数量
const maxListedNames = 3

func listNames(names []string, limit int) string {
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return strings.Join(names, ", ")
}

// ValidateReferenceData 在排课前检查基础数据是否完整。
// 空的集合和没有教学计划的班级会使报告无效，其他问题只作为提示计入 TotalIssues。
func ValidateReferenceData(ref *domain.ReferenceData) *domain.ValidationReport {
	report := &domain.ValidationReport{
		Valid:        true,
		Teachers:     newSection(),
		Subjects:     newSection(),
		Groups:       newSection(),
		Availability: newSection(),
		Curriculum:   newSection(),
		Reservations: newSection(),
	}

	// 教师
	if len(ref.Teachers) == 0 {
		report.Teachers.Issues = append(report.Teachers.Issues, "No hay docentes registrados")
		report.Valid = false
	} else {
		report.Teachers.OK = append(report.Teachers.OK, fmt.Sprintf("%d docentes registrados", len(ref.Teachers)))

		withoutSubjects := make([]string, 0)
		for _, t := range ref.Teachers {
			if len(t.SubjectIDs) == 0 {
				withoutSubjects = append(withoutSubjects, t.Name)
			}
		}
		if len(withoutSubjects) > 0 {
			report.Teachers.Issues = append(report.Teachers.Issues,
				fmt.Sprintf("%d docentes sin materias asignadas: %s", len(withoutSubjects), listNames(withoutSubjects, maxListedNames)))
		}
	}

	// 科目
	if len(ref.Subjects) == 0 {
		report.Subjects.Issues = append(report.Subjects.Issues, "No hay materias registradas")
		report.Valid = false
	} else {
		report.Subjects.OK = append(report.Subjects.OK, fmt.Sprintf("%d materias registradas", len(ref.Subjects)))

		taught := make(map[int64]bool)
		for _, t := range ref.Teachers {
			for _, id := range t.SubjectIDs {
				taught[id] = true
			}
		}
		withoutTeachers := make([]string, 0)
		for _, s := range ref.Subjects {
			if !taught[s.ID] {
				withoutTeachers = append(withoutTeachers, s.Name)
			}
		}
		if len(withoutTeachers) > 0 {
			report.Subjects.Issues = append(report.Subjects.Issues,
				fmt.Sprintf("%d materias sin docentes: %s", len(withoutTeachers), listNames(withoutTeachers, maxListedNames)))
		}
	}

	// 班级
	if len(ref.Groups) == 0 {
		report.Groups.Issues = append(report.Groups.Issues, "No hay grupos registrados")
		report.Valid = false
	} else {
		morning, afternoon := 0, 0
		for _, g := range ref.Groups {
			switch g.Shift {
			case domain.ShiftMorning:
				morning++
			case domain.ShiftAfternoon:
				afternoon++
			}
		}
		report.Groups.OK = append(report.Groups.OK,
			fmt.Sprintf("%d grupos registrados", len(ref.Groups)),
			fmt.Sprintf("Matutinos: %d, Vespertinos: %d", morning, afternoon),
		)
	}

	// 空闲时间
	if len(ref.Availability) == 0 {
		report.Availability.Issues = append(report.Availability.Issues, "No hay disponibilidades registradas")
		report.Valid = false
	} else {
		report.Availability.OK = append(report.Availability.OK, fmt.Sprintf("%d registros de disponibilidad", len(ref.Availability)))

		hasWindow := make(map[int64]bool)
		for _, w := range ref.Availability {
			hasWindow[w.TeacherID] = true
		}
		withoutWindows := make([]string, 0)
		for _, t := range ref.Teachers {
			if !hasWindow[t.ID] {
				withoutWindows = append(withoutWindows, t.Name)
			}
		}
		if len(withoutWindows) > 0 {
			report.Availability.Issues = append(report.Availability.Issues,
				fmt.Sprintf("%d docentes sin disponibilidad: %s", len(withoutWindows), listNames(withoutWindows, maxListedNames)))
		}
	}

	// 教学计划
	if len(ref.Curriculum) == 0 {
		report.Curriculum.Issues = append(report.Curriculum.Issues, "No hay plan de estudios configurado")
		report.Valid = false
	} else {
		report.Curriculum.OK = append(report.Curriculum.OK, fmt.Sprintf("%d asignaciones materia-grupo", len(ref.Curriculum)))

		hasPlan := make(map[int64]bool)
		for _, e := range ref.Curriculum {
			hasPlan[e.GroupID] = true
		}
		withoutPlan := make([]string, 0)
		for _, g := range ref.Groups {
			if !hasPlan[g.ID] {
				withoutPlan = append(withoutPlan, g.Name)
			}
		}
		if len(withoutPlan) > 0 {
			report.Curriculum.Issues = append(report.Curriculum.Issues,
				fmt.Sprintf("%d grupos sin plan: %s", len(withoutPlan), listNames(withoutPlan, 0)))
			report.Valid = false
		}
	}

	// 预约是可选的
	if len(ref.Reservations) > 0 {
		report.Reservations.OK = append(report.Reservations.OK, fmt.Sprintf("%d reservas de módulos configuradas", len(ref.Reservations)))
	} else {
		report.Reservations.OK = append(report.Reservations.OK, "Sin reservas (opcional)")
	}

	for _, section := range []domain.ValidationSection{
		report.Teachers,
		report.Subjects,
		report.Groups,
		report.Availability,
		report.Curriculum,
		report.Reservations,
	} {
		report.TotalIssues += len(section.Issues)
	}
	if report.TotalIssues > 0 {
		report.Valid = false
	}

	return report
}

func newSection() domain.ValidationSection {
	return domain.ValidationSection{
		OK:     make([]string, 0),
		Issues: make([]string, 0),
	}
}
