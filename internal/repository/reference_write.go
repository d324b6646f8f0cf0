package repository

import (
	"context"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

func (r *Repository) CreateTeacher(ctx context.Context, teacher *domain.Teacher) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO teachers (name, email) VALUES ($1, $2) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, teacher.Name, teacher.Email).Scan(&teacher.ID); err != nil {
		return err
	}

	for _, subjectID := range teacher.SubjectIDs {
		query := `INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, teacher.ID, subjectID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if subject.Duration <= 0 {
		subject.Duration = domain.DefaultSubjectDuration
	}

	query := `INSERT INTO subjects (name, shift, duration) VALUES ($1, $2, $3) RETURNING id`
	return r.dbpool.QueryRowContext(ctx, query, subject.Name, subject.Shift, subject.Duration).Scan(&subject.ID)
}

func (r *Repository) CreateGroup(ctx context.Context, group *domain.Group) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `INSERT INTO class_groups (name, shift) VALUES ($1, $2) RETURNING id`
	return r.dbpool.QueryRowContext(ctx, query, group.Name, group.Shift).Scan(&group.ID)
}

func (r *Repository) CreateCurriculumEntry(ctx context.Context, entry *domain.CurriculumEntry) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO curriculum_entries (group_id, subject_id, sessions_per_week)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, entry.GroupID, entry.SubjectID, entry.SessionsPerWeek).Scan(&entry.ID)
}

func (r *Repository) CreateAvailabilityWindow(ctx context.Context, w *domain.AvailabilityWindow) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO availability_windows (teacher_id, day_of_week, shift, block_start, block_end)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, w.TeacherID, w.Day, w.Shift, w.BlockStart, w.BlockEnd).Scan(&w.ID)
}

func (r *Repository) CreateModuleReservation(ctx context.Context, res *domain.ModuleReservation) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO module_reservations (group_id, subject_id, day_of_week, shift, block_start, block_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, res.GroupID, res.SubjectID, res.Day, res.Shift, res.BlockStart, res.BlockEnd).Scan(&res.ID)
}

// ClearReferenceData 删除全部基础数据和已保存的课表，用于重新导入
func (r *Repository) ClearReferenceData(ctx context.Context) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	query := `
		TRUNCATE schedule_assignments, module_reservations, availability_windows,
			curriculum_entries, teacher_subjects, class_groups, subjects, teachers
		RESTART IDENTITY CASCADE
	`
	_, err := r.dbpool.ExecContext(ctx, query)
	return err
}
