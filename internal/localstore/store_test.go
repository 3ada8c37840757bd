package localstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "editor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestVersions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.CreateVersion(ctx, "u1", map[string]any{"skills": []any{"Go"}})
	require.NoError(t, err)
	assert.NotEmpty(t, v.VersionID)

	got, err := s.GetVersion(ctx, v.VersionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, map[string]any{"skills": []any{"Go"}}, got.Document)
	assert.WithinDuration(t, v.CreatedAt, got.CreatedAt, 0)

	missing, err := s.GetVersion(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHistoryRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveHistory(ctx, types.HistoryEntry{
		UserID:            "u1",
		DocumentVersionID: "v1",
		Diffs:             []types.Diff{{Scope: types.ScopeBullet, Before: "", After: "Led migration"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	score := 72
	notes := "scored against backend role"
	require.NoError(t, s.UpdateOptimization(ctx, saved.ID, types.OptimizationPatch{Score: &score, Notes: &notes}))
	require.NoError(t, s.UpdateOptimization(ctx, saved.ID, types.OptimizationPatch{}))
	assert.Error(t, s.UpdateOptimization(ctx, "missing", types.OptimizationPatch{Score: &score}))

	bad := 101
	assert.Error(t, s.UpdateOptimization(ctx, saved.ID, types.OptimizationPatch{Score: &bad}))

	entries, err := s.ListHistory(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Score)
	assert.Equal(t, 72, *entries[0].Score)
	assert.Equal(t, notes, entries[0].Notes)
	assert.Equal(t, "Led migration", entries[0].Diffs[0].After)
}

func TestTimelines(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	store := history.NewStore(s.Timelines())

	_, err := store.Save(ctx, types.HistoryEntry{UserID: "u1", DocumentVersionID: "v1"})
	require.NoError(t, err)
	_, err = store.Save(ctx, types.HistoryEntry{UserID: "u1", DocumentVersionID: "v2"})
	require.NoError(t, err)

	current, tl, err := store.Undo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "v1", current.DocumentVersionID)
	assert.Equal(t, int64(3), tl.Version)

	stale := s.Timelines().CompareAndSwap(ctx, "u1", 1, tl)
	assert.ErrorIs(t, stale, history.ErrVersionConflict)
	dup := s.Timelines().CompareAndSwap(ctx, "u1", 0, tl)
	assert.ErrorIs(t, dup, history.ErrVersionConflict)

	reopened, err := s.Timelines().Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []types.HistoryEntry{tl.Future[0]}, reopened.Future)
}

func TestTimelines_ConcurrentSaves(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	store := history.NewStore(s.Timelines())

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			for attempt := 0; attempt < 20; attempt++ {
				if _, err = store.Save(ctx, types.HistoryEntry{UserID: "u1", DocumentVersionID: "v"}); err == nil {
					return
				}
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("save failed: %v", err)
	}

	tl, err := store.Timeline(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, tl.Past, writers)
	assert.Equal(t, int64(writers), tl.Version)
}
