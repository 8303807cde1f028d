// ABOUTME: Redis-backed DocumentStore for a shared remote deployment.
// ABOUTME: Documents are plain string keys; List walks keys with SCAN MATCH.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements DocumentStore on a Redis client.
type RedisStore struct {
	client *redis.Client
}

// Compile-time check that RedisStore implements DocumentStore.
var _ DocumentStore = (*RedisStore)(nil)

// OpenRedis connects using a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := s.client.Get(ctx, path).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, path string, data []byte) error {
	if err := s.client.Set(ctx, path, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, path).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteMany(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, paths...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]Document, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)

	docs := make([]Document, 0, len(keys))
	for _, k := range keys {
		data, err := s.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue // deleted between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Path: k, Data: data})
	}
	return docs, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// escapeGlob escapes SCAN MATCH metacharacters.
func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
