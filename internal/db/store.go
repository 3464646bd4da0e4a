package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/powderlines/powder-tracker/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// StartRun opens a scraper_runs row in the running state and returns its id.
func (s *Store) StartRun(ctx context.Context, expected int, trigger string) (string, error) {
	runID := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scraper_runs (run_id, run_trigger, status, expected) VALUES ($1, $2, 'running', $3)`,
		runID, trigger, expected)
	if err != nil {
		return "", fmt.Errorf("failed to create scraper run: %w", err)
	}
	return runID, nil
}

// completeRunSQL derives the final status from the counts: a run whose
// outcomes do not cover every expected resort is recorded as incomplete
// (cancelled mid-batch), one with failures as completed_with_errors.
const completeRunSQL = `UPDATE scraper_runs SET
	status = CASE
		WHEN $1 + $2 < expected THEN 'incomplete'
		WHEN $2 > 0 THEN 'completed_with_errors'
		ELSE 'completed'
	END,
	succeeded = $1,
	failed = $2,
	duration_ms = $3,
	completed_at = NOW()
WHERE run_id = $4`

// CompleteRun closes a run.
func (s *Store) CompleteRun(ctx context.Context, runID string, succeeded, failed int, durationMs int64) error {
	_, err := s.pool.Exec(ctx, completeRunSQL, succeeded, failed, durationMs, runID)
	if err != nil {
		return fmt.Errorf("failed to complete scraper run %s: %w", runID, err)
	}
	return nil
}

// SaveConditions appends the snapshot to conditions_history and upserts
// conditions_latest.
func (s *Store) SaveConditions(ctx context.Context, cond models.Conditions) error {
	payload, err := json.Marshal(cond)
	if err != nil {
		return fmt.Errorf("failed to encode conditions for %s: %w", cond.ResortID, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO conditions_history (resort_id, payload, recorded_at) VALUES ($1, $2, $3)`,
		cond.ResortID, payload, cond.UpdatedAt); err != nil {
		return fmt.Errorf("failed to append conditions history for %s: %w", cond.ResortID, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO conditions_latest (resort_id, payload, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (resort_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		cond.ResortID, payload, cond.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert latest conditions for %s: %w", cond.ResortID, err)
	}

	return tx.Commit(ctx)
}

// SaveManyConditions persists a batch of snapshots, continuing past
// individual failures and reporting the first error encountered.
func (s *Store) SaveManyConditions(ctx context.Context, conds []models.Conditions) error {
	var firstErr error
	for _, cond := range conds {
		if err := s.SaveConditions(ctx, cond); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetLatestConditions returns the most recent snapshot for a resort, or
// ErrNotFound if the resort has never been scraped.
func (s *Store) GetLatestConditions(ctx context.Context, resortID string) (*models.Conditions, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM conditions_latest WHERE resort_id = $1`, resortID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest conditions for %s: %w", resortID, err)
	}

	var cond models.Conditions
	if err := json.Unmarshal(payload, &cond); err != nil {
		return nil, fmt.Errorf("failed to decode conditions for %s: %w", resortID, err)
	}
	return &cond, nil
}

// AllLatestConditions returns the latest snapshot of every resort present in
// the store, keyed by resort id.
func (s *Store) AllLatestConditions(ctx context.Context) (map[string]*models.Conditions, error) {
	rows, err := s.pool.Query(ctx, `SELECT resort_id, payload FROM conditions_latest`)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest conditions: %w", err)
	}
	defer rows.Close()

	out := map[string]*models.Conditions{}
	for rows.Next() {
		var resortID string
		var payload []byte
		if err := rows.Scan(&resortID, &payload); err != nil {
			return nil, err
		}
		var cond models.Conditions
		if err := json.Unmarshal(payload, &cond); err != nil {
			return nil, fmt.Errorf("failed to decode conditions for %s: %w", resortID, err)
		}
		out[resortID] = &cond
	}
	return out, rows.Err()
}

// RecentRuns returns the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.ScraperRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, run_trigger, status, expected, succeeded, failed, duration_ms, started_at, completed_at
		 FROM scraper_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load scraper runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ScraperRun
	for rows.Next() {
		var run models.ScraperRun
		if err := rows.Scan(&run.RunID, &run.Trigger, &run.Status, &run.Expected,
			&run.Succeeded, &run.Failed, &run.DurationMs, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// PruneHistory deletes history rows older than the retention window and
// returns how many were removed.
func (s *Store) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conditions_history WHERE recorded_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to prune conditions history: %w", err)
	}
	return tag.RowsAffected(), nil
}
