package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

func (r *Repository) InsertExperiment(ctx context.Context, exp *domain.Experiment) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	metrics, err := json.Marshal(exp.FinalMetrics)
	if err != nil {
		return err
	}
	log := exp.Log
	if log == nil {
		log = make([]domain.GenerationRecord, 0)
	}
	logJSON, err := json.Marshal(log)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO experiments (
			scope, generations, population_size, elite_count, mutation_rate, seed,
			groups_total, groups_morning, groups_afternoon,
			best_final, mean_final, total_seconds, final_metrics, log
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`
	args := []any{
		exp.Scope,
		exp.Generations,
		exp.PopulationSize,
		exp.EliteCount,
		exp.MutationRate,
		exp.Seed,
		exp.GroupsTotal,
		exp.GroupsMorning,
		exp.GroupsAfternoon,
		exp.BestFinal,
		exp.MeanFinal,
		exp.TotalSeconds,
		metrics,
		logJSON,
	}

	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&exp.ID, &exp.CreatedAt)
}

// GetAllExperiments 返回所有实验记录（不含逐代日志），按创建时间倒序
func (r *Repository) GetAllExperiments(ctx context.Context) ([]*domain.Experiment, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			id, scope, generations, population_size, elite_count, mutation_rate, seed,
			groups_total, groups_morning, groups_afternoon,
			best_final, mean_final, total_seconds, final_metrics, created_at
		FROM experiments
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experiments := make([]*domain.Experiment, 0)
	for rows.Next() {
		exp := &domain.Experiment{}
		var seed sql.NullInt64
		var metrics []byte

		dst := []any{
			&exp.ID,
			&exp.Scope,
			&exp.Generations,
			&exp.PopulationSize,
			&exp.EliteCount,
			&exp.MutationRate,
			&seed,
			&exp.GroupsTotal,
			&exp.GroupsMorning,
			&exp.GroupsAfternoon,
			&exp.BestFinal,
			&exp.MeanFinal,
			&exp.TotalSeconds,
			&metrics,
			&exp.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if seed.Valid {
			exp.Seed = &seed.Int64
		}
		if err := json.Unmarshal(metrics, &exp.FinalMetrics); err != nil {
			return nil, err
		}

		experiments = append(experiments, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return experiments, nil
}

func (r *Repository) GetExperimentByID(ctx context.Context, id int64) (*domain.Experiment, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			id, scope, generations, population_size, elite_count, mutation_rate, seed,
			groups_total, groups_morning, groups_afternoon,
			best_final, mean_final, total_seconds, final_metrics, log, created_at
		FROM experiments
		WHERE id = $1
	`

	exp := &domain.Experiment{}
	var seed sql.NullInt64
	var metrics, logJSON []byte

	dst := []any{
		&exp.ID,
		&exp.Scope,
		&exp.Generations,
		&exp.PopulationSize,
		&exp.EliteCount,
		&exp.MutationRate,
		&seed,
		&exp.GroupsTotal,
		&exp.GroupsMorning,
		&exp.GroupsAfternoon,
		&exp.BestFinal,
		&exp.MeanFinal,
		&exp.TotalSeconds,
		&metrics,
		&logJSON,
		&exp.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if seed.Valid {
		exp.Seed = &seed.Int64
	}
	if err := json.Unmarshal(metrics, &exp.FinalMetrics); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(logJSON, &exp.Log); err != nil {
		return nil, err
	}

	return exp, nil
}

func (r *Repository) DeleteExperiment(ctx context.Context, id int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `DELETE FROM experiments WHERE id = $1`

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
