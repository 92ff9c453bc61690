package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrStorageMiss is returned by Storage.Get when nothing is stored under
// the key.
var ErrStorageMiss = errors.New("cart storage miss")

// Storage is the durable key-value medium a Store persists to. Writes are
// whole-value and last-write-wins.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Store owns the cart of one session. It loads from Storage exactly once
// and writes the full line list after every transition.
type Store struct {
	storage Storage
	key     string

	mu     sync.Mutex
	opened bool
	state  State
}

// NewStore creates a Store for the session key. Nothing is read until Open.
func NewStore(storage Storage, key string) *Store {
	return &Store{
		storage: storage,
		key:     key,
		state:   State{Lines: []LineItem{}},
	}
}

// Key returns the session key the store persists under.
func (s *Store) Key() string { return s.key }

// Open loads the persisted cart. Only the first call reads storage; a
// missing, corrupt or unreachable value yields an empty cart.
func (s *Store) Open(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openLocked(ctx)
	return s.state.Snapshot()
}

func (s *Store) openLocked(ctx context.Context) {
	if s.opened {
		return
	}
	s.opened = true

	lg := zctx.From(ctx).With(zap.String("cart_key", s.key))
	data, err := s.storage.Get(ctx, s.key)
	switch {
	case errors.Is(err, ErrStorageMiss):
		return
	case err != nil:
		lg.Warn("Load cart failed, starting empty", zap.Error(err))
		return
	}
	lines, err := Decode(data)
	if err != nil {
		lg.Warn("Discarding corrupt cart", zap.Error(err))
		return
	}
	s.state = Reduce(s.state, Load{Lines: lines})
}

// Dispatch validates a, applies it and persists the result. Only
// ErrInvalidAction is returned; storage failures are logged.
func (s *Store) Dispatch(ctx context.Context, a Action) (Snapshot, error) {
	if a == nil {
		return Snapshot{}, errors.Wrap(ErrInvalidAction, "nil action")
	}
	if err := a.validate(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.openLocked(ctx)
	s.state = Reduce(s.state, a)
	if err := s.storage.Set(ctx, s.key, Encode(s.state.Lines)); err != nil {
		zctx.From(ctx).Warn("Persist cart failed",
			zap.String("cart_key", s.key),
			zap.Error(err),
		)
	}
	return s.state.Snapshot(), nil
}

// Snapshot returns the current lines with freshly computed totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}
