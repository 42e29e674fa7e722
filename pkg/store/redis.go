package store

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

type redisDocuments interface {
	Get(ctx context.Context, key string) (string, error)
	Watch(ctx context.Context, fn func(*goredis.Tx) error, keys ...string) error
	DocumentKey(name string) string
}

// RedisBackend keeps the document in a single Redis string and uses
// WATCH/MULTI so concurrent API and worker processes cannot lose writes.
type RedisBackend struct {
	client      redisDocuments
	maxAttempts int
}

func NewRedisBackend(client redisDocuments, maxAttempts int) *RedisBackend {
	return &RedisBackend{client: client, maxAttempts: maxAttempts}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.client.DocumentKey(key))
	if errors.Is(err, pkgredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (r *RedisBackend) Swap(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	docKey := r.client.DocumentKey(key)
	return withConflictRetry(ctx, r.maxAttempts, func(ctx context.Context) error {
		err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
			current, err := tx.Get(ctx, docKey).Bytes()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return err
			}
			next, err := fn(current)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, docKey, next, 0)
				return nil
			})
			return err
		}, docKey)
		if errors.Is(err, goredis.TxFailedErr) {
			return ErrConflict
		}
		return err
	})
}
