package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/resume-editor/internal/types"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "resume-editor:history:"

// RedisRepository stores each timeline as one JSON value and commits with
// WATCH/MULTI so a concurrent writer aborts the transaction.
type RedisRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRepository creates a repository. A zero ttl keeps timelines forever.
func NewRedisRepository(client redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL, falling back to treating it as host:port
func NewRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

func (r *RedisRepository) key(userID string) string {
	return redisKeyPrefix + userID
}

// getter is satisfied by both clients and transactions
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, key, userID string) (types.Timeline, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Timeline{UserID: userID}, nil
	}
	if err != nil {
		return types.Timeline{}, &StorageError{Message: "redis get", Cause: err}
	}
	var t types.Timeline
	if err := json.Unmarshal(data, &t); err != nil {
		return types.Timeline{}, &StorageError{Message: fmt.Sprintf("corrupt timeline at %s", key), Cause: err}
	}
	return t, nil
}

// Load implements Repository
func (r *RedisRepository) Load(ctx context.Context, userID string) (types.Timeline, error) {
	return load(ctx, r.client, r.key(userID), userID)
}

// CompareAndSwap implements Repository
func (r *RedisRepository) CompareAndSwap(ctx context.Context, userID string, expected int64, next types.Timeline) error {
	next.UserID = userID
	data, err := json.Marshal(next)
	if err != nil {
		return &StorageError{Message: "encode timeline", Cause: err}
	}
	key := r.key(userID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := load(ctx, tx, key, userID)
		if err != nil {
			return err
		}
		if current.Version != expected {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}
