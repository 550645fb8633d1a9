package convostore

import (
	"fmt"
	"time"

	r "gopkg.in/redis.v5"
)

// RedisKV backs the conversation store with a redis instance.
type RedisKV struct {
	client *r.Client
}

func NewRedisKV(url string) (*RedisKV, error) {
	opts, err := r.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := r.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisKV{client: client}, nil
}

func (s *RedisKV) Get(key string) (string, bool, error) {
	v, err := s.client.Get(key).Result()
	if err == r.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisKV) Set(key, value string, expiration time.Duration) error {
	return s.client.Set(key, value, expiration).Err()
}

func (s *RedisKV) Del(key string) error {
	return s.client.Del(key).Err()
}

func (s *RedisKV) Keys(pattern string) ([]string, error) {
	return s.client.Keys(pattern).Result()
}

func (s *RedisKV) Close() error {
	return s.client.Close()
}
