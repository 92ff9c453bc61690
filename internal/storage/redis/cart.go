// Package redis persists session carts in Redis.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/storefront/internal/domain/cart"
)

// DefaultKeyPrefix namespaces cart keys.
const DefaultKeyPrefix = "storefront:cart:"

// CartStorage implements cart.Storage on top of a Redis client. Every write
// refreshes the key TTL, so idle carts expire.
type CartStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCartStorage creates a CartStorage. A zero ttl keeps carts forever.
func NewCartStorage(client redis.UniversalClient, prefix string, ttl time.Duration) *CartStorage {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &CartStorage{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

var _ cart.Storage = (*CartStorage)(nil)

// Get returns the stored cart document, or cart.ErrStorageMiss.
func (s *CartStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrStorageMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return data, nil
}

// Set overwrites the stored cart document.
func (s *CartStorage) Set(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Ping checks the connection; it backs the readiness probe.
func (s *CartStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

// Connect parses a redis:// URL and verifies the connection.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}
