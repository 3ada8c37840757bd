// Package localstore is a single-file SQLite store with the same contracts
// as the Postgres layer. The CLI uses it when no database URL is configured.
package localstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/types"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = time.RFC3339Nano

// Store wraps a SQLite database
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL keeps readers unblocked while a CAS write is in flight
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) timestamp() (time.Time, string) {
	t := s.now().UTC()
	return t, t.Format(timeLayout)
}

// CreateVersion stores an immutable snapshot of a document
func (s *Store) CreateVersion(ctx context.Context, userID string, document any) (*types.DocumentVersion, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	id := uuid.NewString()
	createdAt, stamp := s.timestamp()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO document_versions (id, user_id, document, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, string(data), stamp)
	if err != nil {
		return nil, fmt.Errorf("creating version: %w", err)
	}
	return &types.DocumentVersion{VersionID: id, UserID: userID, CreatedAt: createdAt}, nil
}

// GetVersion returns a stored version, or nil when it does not exist
func (s *Store) GetVersion(ctx context.Context, versionID string) (*types.DocumentVersion, error) {
	var v types.DocumentVersion
	var data, stamp string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, document, created_at FROM document_versions WHERE id = ?`,
		versionID,
	).Scan(&v.VersionID, &v.UserID, &data, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decoding version %s: %w", versionID, err)
	}
	v.Document = doc
	v.CreatedAt, _ = time.Parse(timeLayout, stamp)
	return &v, nil
}

// SaveHistory inserts a history row
func (s *Store) SaveHistory(ctx context.Context, entry types.HistoryEntry) (*types.SavedHistory, error) {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	var diffs sql.NullString
	if len(entry.Diffs) > 0 {
		data, err := json.Marshal(entry.Diffs)
		if err != nil {
			return nil, fmt.Errorf("marshaling diffs: %w", err)
		}
		diffs = sql.NullString{String: string(data), Valid: true}
	}
	var score sql.NullInt64
	if entry.Score != nil {
		score = sql.NullInt64{Int64: int64(*entry.Score), Valid: true}
	}

	createdAt, stamp := s.timestamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history_entries
		 (id, user_id, document_version_id, score, diffs, notes, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'committed', ?, ?)`,
		id, entry.UserID, entry.DocumentVersionID, score, diffs, entry.Notes, stamp, stamp)
	if err != nil {
		return nil, fmt.Errorf("saving history: %w", err)
	}
	return &types.SavedHistory{ID: id, CreatedAt: createdAt}, nil
}

// UpdateOptimization applies a partial update to a history row
func (s *Store) UpdateOptimization(ctx context.Context, id string, patch types.OptimizationPatch) error {
	if patch.Empty() {
		return nil
	}
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("invalid optimization patch: %w", err)
	}
	_, stamp := s.timestamp()
	result, err := s.db.ExecContext(ctx,
		`UPDATE history_entries
		 SET score = COALESCE(?, score), notes = COALESCE(?, notes),
		     status = COALESCE(?, status), updated_at = ?
		 WHERE id = ?`,
		patch.Score, patch.Notes, patch.Status, stamp, id)
	if err != nil {
		return fmt.Errorf("updating optimization: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("history entry not found: %s", id)
	}
	return nil
}

// ListHistory returns a user's history rows, newest first
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, document_version_id, score, diffs, notes, created_at
		 FROM history_entries WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var e types.HistoryEntry
		var score sql.NullInt64
		var diffs sql.NullString
		var stamp string
		if err := rows.Scan(&e.ID, &e.UserID, &e.DocumentVersionID, &score, &diffs, &e.Notes, &stamp); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			e.Score = &v
		}
		if diffs.Valid {
			_ = json.Unmarshal([]byte(diffs.String), &e.Diffs)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, stamp)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Timelines returns a history.Repository backed by this store
func (s *Store) Timelines() history.Repository {
	return &timelineStore{store: s}
}

type timelineStore struct {
	store *Store
}

func (t *timelineStore) Load(ctx context.Context, userID string) (types.Timeline, error) {
	var data string
	var version int64
	err := t.store.db.QueryRowContext(ctx,
		`SELECT timeline, version FROM history_timelines WHERE user_id = ?`, userID,
	).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Timeline{UserID: userID}, nil
	}
	if err != nil {
		return types.Timeline{}, fmt.Errorf("loading timeline: %w", err)
	}
	var tl types.Timeline
	if err := json.Unmarshal([]byte(data), &tl); err != nil {
		return types.Timeline{}, fmt.Errorf("decoding timeline for %s: %w", userID, err)
	}
	tl.UserID = userID
	tl.Version = version
	return tl, nil
}

func (t *timelineStore) CompareAndSwap(ctx context.Context, userID string, expected int64, next types.Timeline) error {
	next.UserID = userID
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshaling timeline: %w", err)
	}
	_, stamp := t.store.timestamp()

	var result sql.Result
	if expected == 0 {
		result, err = t.store.db.ExecContext(ctx,
			`INSERT INTO history_timelines (user_id, timeline, version, updated_at)
			 VALUES (?, ?, ?, ?) ON CONFLICT (user_id) DO NOTHING`,
			userID, string(data), next.Version, stamp)
	} else {
		result, err = t.store.db.ExecContext(ctx,
			`UPDATE history_timelines SET timeline = ?, version = ?, updated_at = ?
			 WHERE user_id = ? AND version = ?`,
			string(data), next.Version, stamp, userID, expected)
	}
	if err != nil {
		return fmt.Errorf("storing timeline: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return history.ErrVersionConflict
	}
	return nil
}
