package estimate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"versereel/internal/model"
)

// DefaultRedisKey is the hash holding the shared estimate.
const DefaultRedisKey = "versereel:estimate"

// RedisStore shares one estimate between all queue workers. Last writer wins.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisStore returns a store using key (DefaultRedisKey when empty).
func NewRedisStore(rdb redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) model.Estimate {
	vals, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil || len(vals) == 0 {
		return model.Unknown()
	}
	secs, err := strconv.ParseFloat(vals["seconds_per_video"], 64)
	if err != nil {
		return model.Unknown()
	}
	var at time.Time
	if unix, err := strconv.ParseInt(vals["updated_at"], 10, 64); err == nil {
		at = time.Unix(unix, 0).UTC()
	}
	e := model.KnownEstimate(secs, at)
	if !usable(e) {
		return model.Unknown()
	}
	return e
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, e model.Estimate) error {
	if !e.Known {
		return s.rdb.Del(ctx, s.key).Err()
	}
	err := s.rdb.HSet(ctx, s.key,
		"seconds_per_video", strconv.FormatFloat(e.SecondsPerVideo, 'f', -1, 64),
		"updated_at", strconv.FormatInt(e.UpdatedAt.Unix(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("save estimate to redis: %w", err)
	}
	return nil
}
