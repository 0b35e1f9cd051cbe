package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/quiz"
)

// DefaultKeyPrefix namespaces session keys in Redis.
const DefaultKeyPrefix = "quiz:session:"

const scanBatch = 100

// Redis persists sessions as JSON values with an optional TTL.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store. A zero ttl keeps sessions forever.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

// Load reads the session value or returns a fresh session on a miss.
func (r *Redis) Load(ctx context.Context, userID int64) (*quiz.Session, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return quiz.NewSession(userID, r), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return Decode(data, r)
}

// Save writes the session value, refreshing its TTL.
func (r *Redis) Save(ctx context.Context, s *quiz.Session) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.UserID), string(data), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (r *Redis) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// Count scans the key prefix and returns the number of session keys.
func (r *Redis) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan sessions: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
