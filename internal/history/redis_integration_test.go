package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository_Integration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client := NewRedisClient(url)
	defer func() { _ = client.Close() }()

	repo := NewRedisRepository(client, time.Minute)
	s := NewStore(repo)
	user := "test-" + uuid.NewString()
	defer client.Del(ctx, repo.key(user))

	_, err := s.Save(ctx, entry(user, "v1"))
	require.NoError(t, err)
	_, err = s.Save(ctx, entry(user, "v2"))
	require.NoError(t, err)

	current, _, err := s.Undo(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "v1", current.DocumentVersionID)

	tl, err := repo.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tl.Version)

	err = repo.CompareAndSwap(ctx, user, 1, tl)
	assert.ErrorIs(t, err, ErrVersionConflict)
}
