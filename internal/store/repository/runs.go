package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/gridiron/internal/store"
)

const runColumns = `run_id, kind, status, season, start_week, end_week, season_type,
	found, matched, processed, error, started_at, finished_at, created_at, updated_at`

// RunRepository persists the ingest run ledger.
type RunRepository struct {
	db *store.Database
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *store.Database) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run row in running state and fills the struct with the
// stored identity and timestamps.
func (r *RunRepository) Create(ctx context.Context, run *store.IngestRun) error {
	query := `
		INSERT INTO ingest_runs (kind, status, season, start_week, end_week, season_type, started_at)
		VALUES ($1, 'running', $2, $3, $4, $5, NOW())
		RETURNING run_id, status, started_at, created_at, updated_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		run.Kind, run.Season, run.StartWeek, run.EndWeek, run.SeasonType,
	).Scan(&run.RunID, &run.Status, &run.StartedAt, &run.CreatedAt, &run.UpdatedAt)

	if err != nil {
		return fmt.Errorf("creating ingest run: %w", err)
	}

	return nil
}

// Finish marks a run completed or failed, recording the summary counts and
// optional error text.
func (r *RunRepository) Finish(ctx context.Context, runID int, status string, found, matched, processed int, errMsg string) error {
	query := `
		UPDATE ingest_runs
		SET status = $2,
			found = $3,
			matched = $4,
			processed = $5,
			error = NULLIF($6, ''),
			finished_at = NOW(),
			updated_at = NOW()
		WHERE run_id = $1
	`

	result, err := r.db.DB().ExecContext(ctx, query, runID, status, found, matched, processed, errMsg)
	if err != nil {
		return fmt.Errorf("finishing ingest run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ingest run %d: %w", runID, ErrNotFound)
	}
	return nil
}

// GetByID finds one run.
func (r *RunRepository) GetByID(ctx context.Context, runID int) (*store.IngestRun, error) {
	query := `SELECT ` + runColumns + ` FROM ingest_runs WHERE run_id = $1`

	run, err := scanRun(r.db.DB().QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ingest run %d: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying ingest run: %w", err)
	}
	return run, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*store.IngestRun, error) {
	query := `SELECT ` + runColumns + ` FROM ingest_runs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []*store.IngestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ingest run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row interface{ Scan(dest ...interface{}) error }) (*store.IngestRun, error) {
	run := &store.IngestRun{}
	err := row.Scan(
		&run.RunID, &run.Kind, &run.Status,
		&run.Season, &run.StartWeek, &run.EndWeek, &run.SeasonType,
		&run.Found, &run.Matched, &run.Processed,
		&run.Error, &run.StartedAt, &run.FinishedAt,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
