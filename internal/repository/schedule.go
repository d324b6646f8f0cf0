package repository

import (
	"context"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// ReplaceSchedule 在一个事务中先删除旧课表再插入新课表，任何一步失败都会回滚
func (r *Repository) ReplaceSchedule(ctx context.Context, assignments []domain.ScheduleAssignment) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `DELETE FROM schedule_assignments`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	for _, a := range assignments {
		query := `
			INSERT INTO schedule_assignments (group_id, subject_id, teacher_id, day_of_week, shift, block_start, block_end)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, query, a.GroupID, a.SubjectID, a.TeacherID, a.Day, a.Shift, a.BlockStart, a.BlockEnd); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// GetSchedule 返回已保存的课表，groupID 不为 nil 时只返回该班级的课表
func (r *Repository) GetSchedule(ctx context.Context, groupID *int64) ([]domain.ScheduleEntry, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			sa.group_id,
			sa.day_of_week,
			sa.shift,
			sa.block_start,
			sa.block_end,
			sa.subject_id,
			sa.teacher_id,
			COALESCE(g.name, ''),
			COALESCE(s.name, ''),
			COALESCE(t.name, ''),
			COALESCE(t.email, '')
		FROM schedule_assignments sa
		LEFT JOIN class_groups g ON sa.group_id = g.id
		LEFT JOIN subjects s ON sa.subject_id = s.id
		LEFT JOIN teachers t ON sa.teacher_id = t.id
		WHERE $1::BIGINT IS NULL OR sa.group_id = $1
		ORDER BY g.name, sa.day_of_week, sa.block_start
	`

	rows, err := r.dbpool.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ScheduleEntry, 0)
	for rows.Next() {
		var e domain.ScheduleEntry
		dst := []any{
			&e.GroupID,
			&e.Day,
			&e.Shift,
			&e.BlockStart,
			&e.BlockEnd,
			&e.SubjectID,
			&e.TeacherID,
			&e.GroupName,
			&e.SubjectName,
			&e.TeacherName,
			&e.TeacherEmail,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
