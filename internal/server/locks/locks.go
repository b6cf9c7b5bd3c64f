// Package locks provides item lockers that keep ledger replicas from working
// on the same items at once.
package locks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/stakeledger/internal/logging"
)

const KeyPrefix = "stakeledger:item:"

var ErrLocked = errors.New("item locked by another replica")

// Local is the locker of a single-replica deployment. The ledger's own mutex
// already serializes its calls.
type Local struct{}

func (Local) Lock(context.Context, []string) (func(), error) { return func() {}, nil }

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var c *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		c = redis.NewClient(opt)
	} else {
		c = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// release deletes a lock key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes one SET NX PX key per item. Keys are acquired in sorted
// order and all of them are released if any is taken.
type RedisLocker struct {
	setNX  func(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	del    func(ctx context.Context, key, token string) error
	ttl    time.Duration
	logger logging.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, l logging.Logger) *RedisLocker {
	return &RedisLocker{
		setNX: func(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
			return client.SetNX(ctx, key, token, ttl).Result()
		},
		del: func(ctx context.Context, key, token string) error {
			return release.Run(ctx, client, []string{key}, token).Err()
		},
		ttl:    ttl,
		logger: l.With("module", "locks"),
	}
}

func (r *RedisLocker) Lock(ctx context.Context, items []string) (func(), error) {
	if len(items) == 0 {
		return func() {}, nil
	}

	keys := make([]string, len(items))
	for i, id := range items {
		keys[i] = KeyPrefix + id
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	unlock := func() {
		ctx := context.WithoutCancel(ctx)
		for _, k := range held {
			if err := r.del(ctx, k, token); err != nil {
				r.logger.Warn(ctx, "lock release failed", "key", k, "error", err)
			}
		}
	}

	for _, k := range keys {
		ok, err := r.setNX(ctx, k, token, r.ttl)
		if err != nil {
			unlock()
			return nil, fmt.Errorf("redis lock %s: %w", k, err)
		}
		if !ok {
			unlock()
			return nil, fmt.Errorf("%s: %w", strings.TrimPrefix(k, KeyPrefix), ErrLocked)
		}
		held = append(held, k)
	}
	return unlock, nil
}
