package history

import (
	"context"
	"sync"

	"github.com/jonathan/resume-editor/internal/types"
)

// MemoryRepository keeps timelines in process memory
type MemoryRepository struct {
	mu        sync.Mutex
	timelines map[string]types.Timeline
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{timelines: make(map[string]types.Timeline)}
}

// Load implements Repository
func (r *MemoryRepository) Load(_ context.Context, userID string) (types.Timeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timelines[userID]
	if !ok {
		return types.Timeline{UserID: userID}, nil
	}
	return t.Clone(), nil
}

// CompareAndSwap implements Repository
func (r *MemoryRepository) CompareAndSwap(_ context.Context, userID string, expected int64, next types.Timeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timelines[userID].Version != expected {
		return ErrVersionConflict
	}
	next.UserID = userID
	r.timelines[userID] = next.Clone()
	return nil
}
