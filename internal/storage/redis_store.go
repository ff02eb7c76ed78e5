package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each save under the key "namespace:key".
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// DialRedis connects and pings before returning.
func DialRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func redisKey(namespace, key string) string {
	return namespace + ":" + key
}

func (s *RedisStore) Save(ctx context.Context, namespace, key string, blob []byte) error {
	if err := s.rdb.Set(ctx, redisKey(namespace, key), blob, 0).Err(); err != nil {
		return fmt.Errorf("save %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, namespace, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s/%s: %w", namespace, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", namespace, key, err)
	}
	return b, nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace, key string) error {
	if err := s.rdb.Del(ctx, redisKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}
