// Package redis holds Redis backed store implementations. They are drop-in
// replacements for the in-memory stores when the service runs with more
// than one replica.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "caprep:ratelimit:"

// RateLimitStore keeps sliding window attempt logs in Redis sorted sets,
// scored by the attempt's unix nano timestamp.
type RateLimitStore struct {
	client *goredis.Client
}

func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{client: client}
}

func (s *RateLimitStore) key(key string) string {
	return rateLimitKeyPrefix + key
}

// TrimWindow drops attempts older than windowStart.
func (s *RateLimitStore) TrimWindow(ctx context.Context, key string, windowStart time.Time) error {
	maxScore := fmt.Sprintf("(%d", windowStart.UnixNano())
	if err := s.client.ZRemRangeByScore(ctx, s.key(key), "-inf", maxScore).Err(); err != nil {
		return fmt.Errorf("trim rate limit window: %w", err)
	}
	return nil
}

// CountAttempts returns the number of recorded attempts for key.
func (s *RateLimitStore) CountAttempts(ctx context.Context, key string) (int, error) {
	count, err := s.client.ZCard(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit attempts: %w", err)
	}
	return int(count), nil
}

// RecordAttempt appends an attempt and refreshes the key's TTL so idle
// buckets expire on their own.
func (s *RateLimitStore) RecordAttempt(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	redisKey := s.key(key)
	score := float64(at.UnixNano())

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, goredis.Z{
		Score:  score,
		Member: fmt.Sprintf("%d", at.UnixNano()),
	})
	pipe.Expire(ctx, redisKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate limit attempt: %w", err)
	}
	return nil
}

// OldestAttempt returns the earliest recorded attempt, or the zero time
// when the bucket is empty.
func (s *RateLimitStore) OldestAttempt(ctx context.Context, key string) (time.Time, error) {
	entries, err := s.client.ZRangeWithScores(ctx, s.key(key), 0, 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("read oldest rate limit attempt: %w", err)
	}
	if len(entries) == 0 {
		return time.Time{}, nil
	}
	return time.Unix(0, int64(entries[0].Score)), nil
}

// Clear removes the key's bucket entirely.
func (s *RateLimitStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("clear rate limit bucket: %w", err)
	}
	return nil
}
