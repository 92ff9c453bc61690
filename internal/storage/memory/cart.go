// Package memory holds in-process storage for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/storefront/internal/domain/cart"
)

// CartStorage is a process-local cart.Storage. Carts are lost on restart.
type CartStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewCartStorage creates an empty CartStorage.
func NewCartStorage() *CartStorage {
	return &CartStorage{data: make(map[string][]byte)}
}

var _ cart.Storage = (*CartStorage)(nil)

// Get returns a copy of the cart stored under key, or cart.ErrStorageMiss.
func (s *CartStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, cart.ErrStorageMiss
	}
	return slices.Clone(v), nil
}

// Set stores a copy of data under key.
func (s *CartStorage) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(data)
	return nil
}
