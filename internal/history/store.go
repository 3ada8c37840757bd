// Package history keeps each user's undo/redo timeline of committed edits.
// Timelines live behind a Repository that commits with an expected-version
// check, so concurrent edits for the same user cannot overwrite each other.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/types"
	"go.uber.org/zap"
)

// Repository persists timelines. Load returns an empty timeline at version 0
// for unknown users. CompareAndSwap stores next only when the stored version
// still equals expected and returns ErrVersionConflict otherwise.
type Repository interface {
	Load(ctx context.Context, userID string) (types.Timeline, error)
	CompareAndSwap(ctx context.Context, userID string, expected int64, next types.Timeline) error
}

const (
	defaultMaxEntries = 100
	defaultMaxRetries = 5
)

// Store implements save, undo, redo and timeline reads over a Repository
type Store struct {
	repo       Repository
	maxEntries int
	maxRetries int
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithMaxEntries bounds the past stack; the oldest entries are dropped first
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithLogger sets the logger used for retries
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store over repo
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:       repo,
		maxEntries: defaultMaxEntries,
		maxRetries: defaultMaxRetries,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save pushes entry onto the user's past stack and clears the future stack.
// Missing ID and CreatedAt are filled in. Conflicts are retried.
func (s *Store) Save(ctx context.Context, entry types.HistoryEntry) (types.Timeline, error) {
	entry = s.prepare(entry)
	return s.update(ctx, entry.UserID, s.maxRetries, func(t *types.Timeline) bool {
		s.push(t, entry)
		return true
	})
}

// SaveExpected is Save without retries: it fails with ErrVersionConflict
// unless the stored timeline is still at expectedVersion.
func (s *Store) SaveExpected(ctx context.Context, entry types.HistoryEntry, expectedVersion int64) (types.Timeline, error) {
	entry = s.prepare(entry)
	current, err := s.Timeline(ctx, entry.UserID)
	if err != nil {
		return types.Timeline{}, err
	}
	if current.Version != expectedVersion {
		return types.Timeline{}, ErrVersionConflict
	}
	next := current.Clone()
	s.push(&next, entry)
	next.Version = expectedVersion + 1
	if err := s.repo.CompareAndSwap(ctx, entry.UserID, expectedVersion, next); err != nil {
		return types.Timeline{}, wrapStorage("save", err)
	}
	return next, nil
}

// Undo moves the top of past onto future and returns the new current entry,
// nil when past is now empty. Undo with an empty past changes nothing.
func (s *Store) Undo(ctx context.Context, userID string) (*types.HistoryEntry, types.Timeline, error) {
	t, err := s.update(ctx, userID, s.maxRetries, func(t *types.Timeline) bool {
		if len(t.Past) == 0 {
			return false
		}
		top := t.Past[len(t.Past)-1]
		t.Past = t.Past[:len(t.Past)-1]
		t.Future = append(t.Future, top)
		return true
	})
	if err != nil {
		return nil, types.Timeline{}, err
	}
	return t.Current(), t, nil
}

// Redo moves the top of future back onto past and returns it. Redo with an
// empty future changes nothing and returns the current entry.
func (s *Store) Redo(ctx context.Context, userID string) (*types.HistoryEntry, types.Timeline, error) {
	t, err := s.update(ctx, userID, s.maxRetries, func(t *types.Timeline) bool {
		if len(t.Future) == 0 {
			return false
		}
		top := t.Future[len(t.Future)-1]
		t.Future = t.Future[:len(t.Future)-1]
		t.Past = append(t.Past, top)
		return true
	})
	if err != nil {
		return nil, types.Timeline{}, err
	}
	return t.Current(), t, nil
}

// Timeline returns a snapshot of both stacks
func (s *Store) Timeline(ctx context.Context, userID string) (types.Timeline, error) {
	t, err := s.repo.Load(ctx, userID)
	if err != nil {
		return types.Timeline{}, wrapStorage("load", err)
	}
	t.UserID = userID
	return t.Clone(), nil
}

func (s *Store) prepare(entry types.HistoryEntry) types.HistoryEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	return entry
}

func (s *Store) push(t *types.Timeline, entry types.HistoryEntry) {
	t.Past = append(t.Past, entry)
	if len(t.Past) > s.maxEntries {
		t.Past = append([]types.HistoryEntry(nil), t.Past[len(t.Past)-s.maxEntries:]...)
	}
	t.Future = nil
}

// update runs a read-modify-write cycle, retrying on version conflicts
func (s *Store) update(ctx context.Context, userID string, retries int, mutate func(*types.Timeline) bool) (types.Timeline, error) {
	for attempt := 0; ; attempt++ {
		current, err := s.Timeline(ctx, userID)
		if err != nil {
			return types.Timeline{}, err
		}
		next := current.Clone()
		if !mutate(&next) {
			return current, nil
		}
		next.Version = current.Version + 1

		err = s.repo.CompareAndSwap(ctx, userID, current.Version, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrVersionConflict) || attempt >= retries {
			return types.Timeline{}, wrapStorage("commit", err)
		}
		s.logger.Debug("history version conflict, retrying",
			zap.String("user_id", userID), zap.Int("attempt", attempt+1))
		if err := ctx.Err(); err != nil {
			return types.Timeline{}, err
		}
	}
}

// wrapStorage leaves ErrVersionConflict unwrapped so callers can errors.Is it directly
func wrapStorage(message string, err error) error {
	if errors.Is(err, ErrVersionConflict) {
		return err
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return &StorageError{Message: message, Cause: err}
}
