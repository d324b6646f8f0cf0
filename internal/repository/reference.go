package repository

import (
	"context"
	"database/sql"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// LoadReferenceData 在同一个只读事务中读取全部基础数据，保证读到的是一致的快照
func (r *Repository) LoadReferenceData(ctx context.Context) (*domain.ReferenceData, error) {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ref := &domain.ReferenceData{}

	if ref.Teachers, err = loadTeachers(ctx, tx); err != nil {
		return nil, err
	}
	if ref.Subjects, err = loadSubjects(ctx, tx); err != nil {
		return nil, err
	}
	if ref.Groups, err = loadGroups(ctx, tx); err != nil {
		return nil, err
	}
	if ref.Curriculum, err = loadCurriculum(ctx, tx); err != nil {
		return nil, err
	}
	if ref.Availability, err = loadAvailability(ctx, tx); err != nil {
		return nil, err
	}
	if ref.Reservations, err = loadReservations(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return ref, nil
}

func loadTeachers(ctx context.Context, tx *sql.Tx) ([]*domain.Teacher, error) {
	query := `SELECT id, name, email FROM teachers ORDER BY id`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := make([]*domain.Teacher, 0)
	teachersMap := make(map[int64]*domain.Teacher)
	for rows.Next() {
		teacher := &domain.Teacher{SubjectIDs: make([]int64, 0)}
		if err := rows.Scan(&teacher.ID, &teacher.Name, &teacher.Email); err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
		teachersMap[teacher.ID] = teacher
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = `SELECT teacher_id, subject_id FROM teacher_subjects ORDER BY teacher_id, subject_id`

	capRows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer capRows.Close()

	for capRows.Next() {
		var teacherID, subjectID int64
		if err := capRows.Scan(&teacherID, &subjectID); err != nil {
			return nil, err
		}
		if teacher, exists := teachersMap[teacherID]; exists {
			teacher.SubjectIDs = append(teacher.SubjectIDs, subjectID)
		}
	}
	if err := capRows.Err(); err != nil {
		return nil, err
	}

	return teachers, nil
}

func loadSubjects(ctx context.Context, tx *sql.Tx) ([]*domain.Subject, error) {
	query := `SELECT id, name, shift, duration FROM subjects ORDER BY id`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := make([]*domain.Subject, 0)
	for rows.Next() {
		subject := &domain.Subject{}
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.Shift, &subject.Duration); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subjects, nil
}

func loadGroups(ctx context.Context, tx *sql.Tx) ([]*domain.Group, error) {
	query := `SELECT id, name, shift FROM class_groups ORDER BY id`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*domain.Group, 0)
	for rows.Next() {
		group := &domain.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Shift); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

func loadCurriculum(ctx context.Context, tx *sql.Tx) ([]*domain.CurriculumEntry, error) {
	query := `SELECT id, group_id, subject_id, sessions_per_week FROM curriculum_entries ORDER BY id`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.CurriculumEntry, 0)
	for rows.Next() {
		entry := &domain.CurriculumEntry{}
		if err := rows.Scan(&entry.ID, &entry.GroupID, &entry.SubjectID, &entry.SessionsPerWeek); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func loadAvailability(ctx context.Context, tx *sql.Tx) ([]*domain.AvailabilityWindow, error) {
	query := `
		SELECT id, teacher_id, day_of_week, shift, block_start, block_end
		FROM availability_windows
		ORDER BY id
	`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]*domain.AvailabilityWindow, 0)
	for rows.Next() {
		w := &domain.AvailabilityWindow{}
		if err := rows.Scan(&w.ID, &w.TeacherID, &w.Day, &w.Shift, &w.BlockStart, &w.BlockEnd); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return windows, nil
}

func loadReservations(ctx context.Context, tx *sql.Tx) ([]*domain.ModuleReservation, error) {
	query := `
		SELECT id, group_id, subject_id, day_of_week, shift, block_start, block_end
		FROM module_reservations
		ORDER BY id
	`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*domain.ModuleReservation, 0)
	for rows.Next() {
		res := &domain.ModuleReservation{}
		if err := rows.Scan(&res.ID, &res.GroupID, &res.SubjectID, &res.Day, &res.Shift, &res.BlockStart, &res.BlockEnd); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}

// CountGroupsByShift 返回每个班次的班级数量
func (r *Repository) CountGroupsByShift(ctx context.Context) (map[domain.Shift]int, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `SELECT shift, COUNT(*) FROM class_groups GROUP BY shift`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Shift]int)
	for rows.Next() {
		var shift domain.Shift
		var cnt int
		if err := rows.Scan(&shift, &cnt); err != nil {
			return nil, err
		}
		counts[shift] = cnt
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
