package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, started_at, finished_at, status, policy, dry_run, pages, customers,
	partners, cache_hits, geocoded, no_result, skipped, skipped_reasons, error`

// RecordRun appends a run to the history.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *model.SyncRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	reasons, err := json.Marshal(run.SkippedByReason)
	if err != nil {
		return fmt.Errorf("failed to encode skip reasons: %w", err)
	}
	if run.SkippedByReason == nil {
		reasons = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		string(run.Status),
		run.Policy,
		run.DryRun,
		run.Pages,
		run.Customers,
		run.Partners,
		run.CacheHits,
		run.Geocoded,
		run.NoResult,
		run.Skipped,
		string(reasons),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns all runs.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.SyncRun
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// LastSuccessfulRun returns the newest succeeded, non dry-run run.
// It returns common.ErrNotFound when there is none.
func (s *SQLiteStorage) LastSuccessfulRun(ctx context.Context) (*model.SyncRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM sync_runs
		WHERE status = ? AND dry_run = 0
		ORDER BY started_at DESC, id DESC
		LIMIT 1`, string(model.RunSucceeded))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.SyncRun, error) {
	var (
		run        model.SyncRun
		startedAt  string
		finishedAt string
		status     string
		reasons    string
	)

	err := row.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&status,
		&run.Policy,
		&run.DryRun,
		&run.Pages,
		&run.Customers,
		&run.Partners,
		&run.CacheHits,
		&run.Geocoded,
		&run.NoResult,
		&run.Skipped,
		&reasons,
		&run.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = model.RunStatus(status)
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(reasons), &run.SkippedByReason); err != nil {
		return nil, fmt.Errorf("failed to decode skip reasons for run %s: %w", run.ID, err)
	}

	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
