package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertBenchmarkSQL = `
INSERT INTO benchmark_runs (id, name, status, iterations, texts, configs)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

// CreateBenchmark records a new running benchmark. Texts and configs are
// stored as JSON documents supplied by the caller.
func (s *Store) CreateBenchmark(ctx context.Context, name string, iterations int, texts, configs []byte) (BenchmarkRun, error) {
	run := BenchmarkRun{
		ID:         uuid.New(),
		Name:       name,
		Status:     BenchmarkRunning,
		Iterations: iterations,
		Texts:      texts,
		Configs:    configs,
	}
	err := s.pool.QueryRow(ctx, insertBenchmarkSQL,
		run.ID, run.Name, run.Status, run.Iterations, run.Texts, run.Configs,
	).Scan(&run.CreatedAt)
	if err != nil {
		return BenchmarkRun{}, fmt.Errorf("insert benchmark: %w", err)
	}
	return run, nil
}

const finishBenchmarkSQL = `
UPDATE benchmark_runs
SET status = $2, summary = $3, completed_at = now()
WHERE id = $1`

// FinishBenchmark stores the final status and summary document.
func (s *Store) FinishBenchmark(ctx context.Context, id uuid.UUID, status string, summary []byte) error {
	tag, err := s.pool.Exec(ctx, finishBenchmarkSQL, id, status, summary)
	if err != nil {
		return fmt.Errorf("finish benchmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const getBenchmarkSQL = `
SELECT id, name, status, iterations, texts, configs, summary, created_at, completed_at
FROM benchmark_runs
WHERE id = $1`

func (s *Store) GetBenchmark(ctx context.Context, id uuid.UUID) (BenchmarkRun, error) {
	var run BenchmarkRun
	err := s.pool.QueryRow(ctx, getBenchmarkSQL, id).Scan(
		&run.ID, &run.Name, &run.Status, &run.Iterations,
		&run.Texts, &run.Configs, &run.Summary,
		&run.CreatedAt, &run.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return BenchmarkRun{}, ErrNotFound
	}
	if err != nil {
		return BenchmarkRun{}, fmt.Errorf("get benchmark: %w", err)
	}
	return run, nil
}

const listBenchmarksSQL = `
SELECT id, name, status, iterations, texts, configs, summary, created_at, completed_at
FROM benchmark_runs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

func (s *Store) ListBenchmarks(ctx context.Context, limit, offset int) ([]BenchmarkRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, listBenchmarksSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list benchmarks: %w", err)
	}
	defer rows.Close()

	runs := make([]BenchmarkRun, 0, limit)
	for rows.Next() {
		var run BenchmarkRun
		if err := rows.Scan(
			&run.ID, &run.Name, &run.Status, &run.Iterations,
			&run.Texts, &run.Configs, &run.Summary,
			&run.CreatedAt, &run.CompletedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
