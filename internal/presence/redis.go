package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the Redis key prefix for per-tenant presence hashes.
const KeyPrefix = "presence:"

// DefaultTTL bounds how long a stream counts without a heartbeat.
const DefaultTTL = 2 * time.Minute

// Redis tracks open streams across server instances in one hash per tenant
// (field = stream id, value = unix time of the last touch).
type Redis struct {
	client   *redis.Client
	ttl      time.Duration
	instance string
	now      func() time.Time
}

// NewRedis connects to Redis at addr and verifies the connection.
func NewRedis(addr, instance string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("presence: redis connection failed: %w", err)
	}

	return NewRedisWithClient(client, instance, ttl), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, instance string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, instance: instance, now: time.Now}
}

func (r *Redis) key(tenantID string) string {
	return KeyPrefix + tenantID
}

func (r *Redis) field(streamID string) string {
	if r.instance == "" {
		return streamID
	}
	return r.instance + "/" + streamID
}

// Join registers a stream and refreshes the tenant key's TTL.
func (r *Redis) Join(ctx context.Context, tenantID, streamID string) error {
	key := r.key(tenantID)
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, r.field(streamID), r.now().Unix())
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Touch refreshes a stream's last-seen time.
func (r *Redis) Touch(ctx context.Context, tenantID, streamID string) error {
	return r.Join(ctx, tenantID, streamID)
}

// Leave removes a stream.
func (r *Redis) Leave(ctx context.Context, tenantID, streamID string) error {
	return r.client.HDel(ctx, r.key(tenantID), r.field(streamID)).Err()
}

// Count returns the number of streams touched within the TTL and prunes the
// rest, which belong to instances that stopped without calling Leave.
func (r *Redis) Count(ctx context.Context, tenantID string) (int, error) {
	key := r.key(tenantID)
	entries, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	cutoff := r.now().Add(-r.ttl).Unix()
	var stale []string
	n := 0
	for field, value := range entries {
		seen, err := strconv.ParseInt(value, 10, 64)
		if err != nil || seen < cutoff {
			stale = append(stale, field)
			continue
		}
		n++
	}
	if len(stale) > 0 {
		if err := r.client.HDel(ctx, key, stale...).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
