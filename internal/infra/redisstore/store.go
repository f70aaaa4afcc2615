// Package redisstore persists the dataset registry in Redis, as one JSON
// document under a single key.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datalakehq/statingest/internal/core/domain"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
}

const defaultKey = "statingest:datasets"

// Store keeps the full dataset list as one value; the registry owns the
// in-memory copy, so per-dataset granularity buys nothing here.
type Store struct {
	rdb *redis.Client
	key string
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = defaultKey
	}
	return &Store{rdb: rdb, key: key}, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Load reads the dataset list. A missing key is an empty registry.
func (s *Store) Load(ctx context.Context) ([]*domain.Dataset, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry from redis: %w", err)
	}

	var datasets []*domain.Dataset
	if err := json.Unmarshal(data, &datasets); err != nil {
		return nil, fmt.Errorf("failed to parse registry payload: %w", err)
	}
	return datasets, nil
}

// Save overwrites the dataset list.
func (s *Store) Save(ctx context.Context, datasets []*domain.Dataset) error {
	data, err := json.Marshal(datasets)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write registry to redis: %w", err)
	}
	return nil
}
