package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestVersionsAndHistory_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	user := "test-" + uuid.NewString()

	version, err := db.CreateVersion(ctx, user, map[string]any{"title": "Engineer"})
	require.NoError(t, err)
	assert.NotEmpty(t, version.VersionID)
	assert.False(t, version.CreatedAt.IsZero())

	got, err := db.GetVersion(ctx, version.VersionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, map[string]any{"title": "Engineer"}, got.Document)

	missing, err := db.GetVersion(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := db.SaveHistory(ctx, types.HistoryEntry{
		UserID:            user,
		DocumentVersionID: version.VersionID,
		Diffs:             []types.Diff{{Scope: types.ScopeSection, Before: "a", After: "b"}},
	})
	require.NoError(t, err)

	score := 81
	require.NoError(t, db.UpdateOptimization(ctx, saved.ID, types.OptimizationPatch{Score: &score}))
	assert.Error(t, db.UpdateOptimization(ctx, uuid.NewString(), types.OptimizationPatch{Score: &score}))

	entries, err := db.ListHistory(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Score)
	assert.Equal(t, 81, *entries[0].Score)
	assert.Len(t, entries[0].Diffs, 1)
}

func TestTimelineRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	user := "test-" + uuid.NewString()

	store := history.NewStore(db.Timelines())
	_, err := store.Save(ctx, types.HistoryEntry{UserID: user, DocumentVersionID: "v1"})
	require.NoError(t, err)
	_, err = store.Save(ctx, types.HistoryEntry{UserID: user, DocumentVersionID: "v2"})
	require.NoError(t, err)

	current, tl, err := store.Undo(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "v1", current.DocumentVersionID)
	assert.Equal(t, int64(3), tl.Version)

	err = db.Timelines().CompareAndSwap(ctx, user, 2, tl)
	assert.ErrorIs(t, err, history.ErrVersionConflict)
	err = db.Timelines().CompareAndSwap(ctx, user, 0, tl)
	assert.ErrorIs(t, err, history.ErrVersionConflict)
}

func TestRuns_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	user := "test-" + uuid.NewString()

	runID, err := db.CreateRun(ctx, user, "make my headings navy")
	require.NoError(t, err)
	require.NoError(t, db.SaveArtifact(ctx, runID, ArtifactIntent, map[string]string{"intent": "customize_design"}))
	require.NoError(t, db.SaveTextArtifact(ctx, runID, ArtifactPreview, "<html></html>"))
	require.NoError(t, db.CompleteRun(ctx, runID, "customize_design", RunStatusCompleted))

	run, err := db.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)

	runs, err := db.ListRuns(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "make my headings navy", runs[0].Message)

	content, err := db.GetArtifact(ctx, runID, ArtifactIntent)
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"customize_design"}`, string(content))

	text, err := db.GetTextArtifact(ctx, runID, ArtifactPreview)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", text)

	require.NoError(t, db.DeleteRun(ctx, runID))
	assert.ErrorIs(t, db.DeleteRun(ctx, runID), ErrRunNotFound)
}
