package resourcelock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares locks between every process using the same redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisLocker
type RedisOption func(*RedisLocker)

// WithPrefix namespaces lock keys.
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisLocker) {
		r.prefix = prefix
	}
}

// WithTTL sets the lease lifetime.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisLocker) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewRedisLocker builds a locker on an existing client.
func NewRedisLocker(client *redis.Client, opts ...RedisOption) *RedisLocker {
	r := &RedisLocker{
		client: client,
		ttl:    DefaultTTL,
		prefix: "mclass:lock",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisLocker) redisKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *RedisLocker) TryAcquire(ctx context.Context, key string) (*Lease, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.redisKey(key), token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lease{Key: key, Token: token, ExpiresAt: time.Now().Add(r.ttl)}, nil
}

func (r *RedisLocker) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, r.client, []string{r.redisKey(lease.Key)}, lease.Token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", lease.Key, err)
	}
	return nil
}

// Ping checks connectivity at startup.
func (r *RedisLocker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
