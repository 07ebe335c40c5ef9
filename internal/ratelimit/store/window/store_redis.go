package window

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"termyx/pkg/requestcontext"
)

// RedisStore keeps fixed-window counters in Redis so every instance shares them.
// INCR creates the key at 1; PEXPIRE NX sets the window only on creation, so
// later hits never extend it.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := requestcontext.Now(ctx)

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Do(ctx, "PEXPIRE", key, window.Milliseconds(), "NX")
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit hit %s: %w", key, err)
	}

	ttl := pttl.Val()
	if ttl <= 0 {
		// key without expiry (left by an older writer); bound it now
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("rate limit expire %s: %w", key, err)
		}
		ttl = window
	}
	return int(incr.Val()), now.Add(ttl), nil
}
