package presence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLocal_JoinLeaveCount(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(0)

	require.NoError(t, l.Join(ctx, "tenant1", "s1"))
	require.NoError(t, l.Join(ctx, "tenant1", "s2"))
	require.NoError(t, l.Join(ctx, "tenant2", "s3"))

	n, err := l.Count(ctx, "tenant1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, l.Leave(ctx, "tenant1", "s1"))
	n, _ = l.Count(ctx, "tenant1")
	require.Equal(t, 1, n)

	n, _ = l.Count(ctx, "unknown")
	require.Equal(t, 0, n)
}

func TestLocal_ExpiresUntouchedStreams(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal(time.Minute)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Join(ctx, "tenant1", "s1"))
	require.NoError(t, l.Join(ctx, "tenant1", "s2"))

	now = now.Add(45 * time.Second)
	require.NoError(t, l.Touch(ctx, "tenant1", "s2"))

	now = now.Add(30 * time.Second)
	n, err := l.Count(ctx, "tenant1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

// newTestRedis requires a running Redis on localhost:6379.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		iter := client.Scan(ctx, 0, KeyPrefix+"test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		client.Close()
	})
	return NewRedisWithClient(client, "node-a", time.Minute)
}

func TestRedis_JoinLeaveCount(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Join(ctx, "test_tenant", "s1"))
	require.NoError(t, r.Join(ctx, "test_tenant", "s2"))

	n, err := r.Count(ctx, "test_tenant")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, r.Leave(ctx, "test_tenant", "s1"))
	n, err = r.Count(ctx, "test_tenant")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRedis_PrunesStaleStreams(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	now := time.Now()
	r.now = func() time.Time { return now.Add(-2 * time.Minute) }
	require.NoError(t, r.Join(ctx, "test_stale", "old"))
	r.now = func() time.Time { return now }
	require.NoError(t, r.Join(ctx, "test_stale", "fresh"))

	n, err := r.Count(ctx, "test_stale")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	fields, err := r.client.HKeys(ctx, KeyPrefix+"test_stale").Result()
	require.NoError(t, err)
	require.Equal(t, []string{"node-a/fresh"}, fields)
}
