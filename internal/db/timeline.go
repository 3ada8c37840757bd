package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/types"
)

// TimelineRepository stores history timelines in Postgres. The version
// column is the compare-and-swap guard.
type TimelineRepository struct {
	db *DB
}

// Timelines returns a history.Repository backed by db
func (db *DB) Timelines() *TimelineRepository {
	return &TimelineRepository{db: db}
}

var _ history.Repository = (*TimelineRepository)(nil)

// Load implements history.Repository
func (r *TimelineRepository) Load(ctx context.Context, userID string) (types.Timeline, error) {
	var data []byte
	var version int64
	err := r.db.pool.QueryRow(ctx,
		`SELECT timeline, version FROM history_timelines WHERE user_id = $1`,
		userID,
	).Scan(&data, &version)
	if err != nil {
		if err == pgx.ErrNoRows {
			return types.Timeline{UserID: userID}, nil
		}
		return types.Timeline{}, fmt.Errorf("failed to load timeline: %w", err)
	}

	var t types.Timeline
	if err := json.Unmarshal(data, &t); err != nil {
		return types.Timeline{}, fmt.Errorf("failed to decode timeline for %s: %w", userID, err)
	}
	t.UserID = userID
	t.Version = version
	return t, nil
}

// CompareAndSwap implements history.Repository
func (r *TimelineRepository) CompareAndSwap(ctx context.Context, userID string, expected int64, next types.Timeline) error {
	next.UserID = userID
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}

	var query string
	if expected == 0 {
		query = `INSERT INTO history_timelines (user_id, timeline, version)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`
	} else {
		query = `UPDATE history_timelines
		 SET timeline = $2, version = $3, updated_at = NOW()
		 WHERE user_id = $1 AND version = $4`
	}

	args := []any{userID, data, next.Version}
	if expected != 0 {
		args = append(args, expected)
	}
	result, err := r.db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to store timeline: %w", err)
	}
	if result.RowsAffected() == 0 {
		return history.ErrVersionConflict
	}
	return nil
}
