package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/service-journal/internal/config"
)

// RedisStorage stores entries as plain redis strings under a key prefix.
type RedisStorage struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisStorage wraps a redis client. prefix is prepended to every key.
func NewRedisStorage(rdb redis.Cmdable, prefix string) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

// OpenRedis connects and pings the configured server.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, storageErr("ping", cfg.Addr, err)
	}
	return rdb, nil
}

// Get implements Storage.
func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	return v, true, nil
}

// Set implements Storage. Entries never expire.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	return storageErr("set", key, s.rdb.Set(ctx, s.prefix+key, value, 0).Err())
}

// Remove implements Storage.
func (s *RedisStorage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return storageErr("remove", strings.Join(keys, ","), s.rdb.Del(ctx, full...).Err())
}
