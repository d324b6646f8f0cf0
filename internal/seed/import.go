package seed

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// Store 为导入基础数据所需的写操作，由 repository.Repository 实现
type Store interface {
	ClearReferenceData(ctx context.Context) error
	CreateSubject(ctx context.Context, subject *domain.Subject) error
	CreateTeacher(ctx context.Context, teacher *domain.Teacher) error
	CreateGroup(ctx context.Context, group *domain.Group) error
	CreateCurriculumEntry(ctx context.Context, entry *domain.CurriculumEntry) error
	CreateAvailabilityWindow(ctx context.Context, w *domain.AvailabilityWindow) error
	CreateModuleReservation(ctx context.Context, res *domain.ModuleReservation) error
}

// Import 按 科目 -> 教师 -> 班级 -> 空闲时间 -> 教学计划 -> 预约 的顺序写入数据集。
// 名称无法解析或数据非法的行会被跳过并记录日志，只有存储层的其他错误会中止导入。
func Import(ctx context.Context, store Store, ds *Dataset, clear bool, logger *slog.Logger) (*ImportStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if clear {
		if err := store.ClearReferenceData(ctx); err != nil {
			return nil, err
		}
	}

	stats := &ImportStats{}
	subjects := make(map[string]int64)
	teachers := make(map[string]int64)
	groups := make(map[string]int64)

	skip := func(kind string, row any, reason string) {
		stats.Skipped++
		logger.Warn("已跳过无效数据", "kind", kind, "row", row, "reason", reason)
	}

	// 科目
	for _, row := range ds.Subjects {
		shift, err := domain.ParseShift(row.Shift)
		if err != nil {
			skip("subject", row, err.Error())
			continue
		}
		duration := domain.DefaultSubjectDuration
		if s := strings.TrimSpace(row.Duration); s != "" {
			d, err := strconv.Atoi(s)
			if err != nil || d < 1 || d > domain.BlocksPerShift {
				skip("subject", row, "duración inválida")
				continue
			}
			duration = d
		}

		subject := &domain.Subject{Name: strings.TrimSpace(row.Name), Shift: shift, Duration: duration}
		if err := store.CreateSubject(ctx, subject); err != nil {
			if reason, ok := constraintViolation(err); ok {
				skip("subject", row, reason)
				continue
			}
			return stats, err
		}
		subjects[subject.Name] = subject.ID
		stats.Subjects++
	}

	// 教师及其可授科目，未知的科目名直接忽略
	for _, row := range ds.Teachers {
		teacher := &domain.Teacher{
			Name:       strings.TrimSpace(row.Name),
			Email:      strings.TrimSpace(row.Email),
			SubjectIDs: make([]int64, 0),
		}
		for _, name := range splitNames(row.Subjects) {
			if id, exists := subjects[name]; exists {
				teacher.SubjectIDs = append(teacher.SubjectIDs, id)
			}
		}

		if err := store.CreateTeacher(ctx, teacher); err != nil {
			return stats, err
		}
		teachers[teacher.Name] = teacher.ID
		stats.Teachers++
	}

	// 班级
	for _, row := range ds.Groups {
		shift, err := domain.ParseShift(row.Shift)
		if err != nil {
			skip("group", row, err.Error())
			continue
		}

		group := &domain.Group{Name: strings.TrimSpace(row.Name), Shift: shift}
		if err := store.CreateGroup(ctx, group); err != nil {
			if reason, ok := constraintViolation(err); ok {
				skip("group", row, reason)
				continue
			}
			return stats, err
		}
		groups[group.Name] = group.ID
		stats.Groups++
	}

	// 空闲时间
	for _, row := range ds.Availability {
		teacherID, exists := teachers[strings.TrimSpace(row.Teacher)]
		if !exists {
			skip("availability", row, "docente desconocido")
			continue
		}
		day, shift, err := parseSlot(row.Day, row.Shift, row.BlockStart, row.BlockEnd)
		if err != nil {
			skip("availability", row, err.Error())
			continue
		}

		w := &domain.AvailabilityWindow{
			TeacherID:  teacherID,
			Day:        day,
			Shift:      shift,
			BlockStart: row.BlockStart,
			BlockEnd:   row.BlockEnd,
		}
		if err := store.CreateAvailabilityWindow(ctx, w); err != nil {
			return stats, err
		}
		stats.Availability++
	}

	// 教学计划
	for _, row := range ds.Curriculum {
		groupID, groupExists := groups[strings.TrimSpace(row.Group)]
		subjectID, subjectExists := subjects[strings.TrimSpace(row.Subject)]
		if !groupExists || !subjectExists {
			skip("curriculum", row, "grupo o materia desconocidos")
			continue
		}
		if row.SessionsPerWeek < 0 {
			skip("curriculum", row, "sesiones por semana negativas")
			continue
		}

		entry := &domain.CurriculumEntry{GroupID: groupID, SubjectID: subjectID, SessionsPerWeek: row.SessionsPerWeek}
		if err := store.CreateCurriculumEntry(ctx, entry); err != nil {
			return stats, err
		}
		stats.Curriculum++
	}

	// 预约
	for _, row := range ds.Reservations {
		groupID, groupExists := groups[strings.TrimSpace(row.Group)]
		subjectID, subjectExists := subjects[strings.TrimSpace(row.Subject)]
		if !groupExists || !subjectExists {
			skip("reservation", row, "grupo o materia desconocidos")
			continue
		}
		day, shift, err := parseSlot(row.Day, row.Shift, row.BlockStart, row.BlockEnd)
		if err != nil {
			skip("reservation", row, err.Error())
			continue
		}

		res := &domain.ModuleReservation{
			GroupID:    groupID,
			SubjectID:  subjectID,
			Day:        day,
			Shift:      shift,
			BlockStart: row.BlockStart,
			BlockEnd:   row.BlockEnd,
		}
		if err := store.CreateModuleReservation(ctx, res); err != nil {
			return stats, err
		}
		stats.Reservations++
	}

	return stats, nil
}

func parseSlot(dayName, shiftName string, start, end int) (domain.Day, domain.Shift, error) {
	day, err := domain.ParseDay(dayName)
	if err != nil {
		return 0, "", err
	}
	shift, err := domain.ParseShift(shiftName)
	if err != nil {
		return 0, "", err
	}
	if start < 1 || end > domain.BlocksPerShift || start > end {
		return 0, "", errors.New("rango de bloques inválido")
	}
	return day, shift, nil
}

// constraintViolation 把唯一约束冲突转换为可读的原因
func constraintViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	switch pgErr.ConstraintName {
	case "subjects_name_key":
		return "materia duplicada", true
	case "class_groups_name_key":
		return "grupo duplicado", true
	default:
		return "", false
	}
}
