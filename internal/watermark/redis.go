package watermark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisStore struct {
	rdb    *redis.Client
	key    string
	logger *zap.Logger
}

func NewRedisStore(rdb *redis.Client, key string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{rdb: rdb, key: key, logger: logger}
}

func (s *RedisStore) Load(ctx context.Context) (time.Time, bool) {
	raw, err := s.rdb.Get(ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to read watermark from redis", zap.String("key", s.key), zap.Error(err))
		}
		return time.Time{}, false
	}

	ts, err := Parse(raw)
	if err != nil {
		s.logger.Warn("ignoring redis watermark", zap.String("key", s.key), zap.Error(err))
		return time.Time{}, false
	}
	return ts, true
}

// Save uses a plain SET without expiry; a single SET is atomic on the server.
func (s *RedisStore) Save(ctx context.Context, ts time.Time) error {
	if err := s.rdb.Set(ctx, s.key, Format(ts), 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
