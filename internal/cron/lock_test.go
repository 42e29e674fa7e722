package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

func newLockClient(t *testing.T) (*miniredis.Miniredis, *pkgredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := pkgredis.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLockIsExclusive(t *testing.T) {
	mr, client := newLockClient(t)
	ctx := context.Background()

	a, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)
	b, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(client.LockKey("cron")))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Release(ctx), "non-owner release is a no-op")
	assert.True(t, mr.Exists(client.LockKey("cron")))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists(client.LockKey("cron")))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	mr, client := newLockClient(t)
	ctx := context.Background()

	a, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)
	b, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Release(ctx), "stale owner must not delete the new holder's lock")
	assert.True(t, mr.Exists(client.LockKey("cron")))
}
