package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RedisStore keeps datasets as JSON documents in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger

	// Concurrent reads of one dataset share a single fetch and decode.
	group singleflight.Group
}

// NewRedisStore wraps client. Keys are prefix + dataset ID.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "redis_store")),
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Put stores d with the store's TTL. Pinned datasets are stored without one.
func (s *RedisStore) Put(ctx context.Context, d *Dataset) (bool, error) {
	ttl := s.ttl
	if d.Pinned {
		ttl = 0
	}
	d.ExpiresAt = time.Time{}
	if ttl > 0 {
		d.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("encode dataset %s: %w", d.ID, err)
	}

	var exists *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, s.key(d.ID))
		pipe.Set(ctx, s.key(d.ID), data, ttl)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("store dataset %s: %w", d.ID, err)
	}

	s.logger.DebugContext(ctx, "dataset stored",
		slog.String("dataset_id", d.ID),
		slog.Int("bytes", len(data)),
		slog.Bool("pinned", d.Pinned))
	return exists.Val() == 0, nil
}

// Get fetches and decodes a dataset.
func (s *RedisStore) Get(ctx context.Context, id string) (*Dataset, error) {
	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		data, err := s.client.Get(ctx, s.key(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("fetch dataset %s: %w", id, err)
		}

		var d Dataset
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode dataset %s: %w", id, err)
		}
		return &d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Delete removes a dataset.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
