package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/types"
)

// SaveHistory inserts a history row. A missing or non-UUID entry ID is replaced.
func (db *DB) SaveHistory(ctx context.Context, entry types.HistoryEntry) (*types.SavedHistory, error) {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		id = uuid.New()
	}

	var diffs []byte
	if len(entry.Diffs) > 0 {
		if diffs, err = json.Marshal(entry.Diffs); err != nil {
			return nil, fmt.Errorf("failed to marshal diffs: %w", err)
		}
	}

	var createdAt time.Time
	err = db.pool.QueryRow(ctx,
		`INSERT INTO history_entries (id, user_id, document_version_id, score, diffs, notes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		id, entry.UserID, entry.DocumentVersionID, entry.Score, diffs, entry.Notes, HistoryStatusCommitted,
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}
	return &types.SavedHistory{ID: id.String(), CreatedAt: createdAt}, nil
}

// UpdateOptimization applies a partial update to a history row
func (db *DB) UpdateOptimization(ctx context.Context, id string, patch types.OptimizationPatch) error {
	if patch.Empty() {
		return nil
	}
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("invalid optimization patch: %w", err)
	}
	rowID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid history id %q: %w", id, err)
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE history_entries
		 SET score = COALESCE($2, score),
		     notes = COALESCE($3, notes),
		     status = COALESCE($4, status),
		     updated_at = NOW()
		 WHERE id = $1`,
		rowID, patch.Score, patch.Notes, patch.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update optimization: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("history entry not found: %s", id)
	}
	return nil
}

// ListHistory returns a user's history rows, newest first
func (db *DB) ListHistory(ctx context.Context, userID string, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, document_version_id, score, diffs, notes, created_at
		 FROM history_entries WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var e types.HistoryEntry
		var id uuid.UUID
		var diffs []byte
		if err := rows.Scan(&id, &e.UserID, &e.DocumentVersionID, &e.Score, &diffs, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.ID = id.String()
		if len(diffs) > 0 {
			_ = json.Unmarshal(diffs, &e.Diffs)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
