package cart

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/catalog"
)

type fakeStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	gets   int
	sets   int
	getErr error
	setErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: map[string][]byte{}}
}

func (f *fakeStorage) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrStorageMiss
	}
	return v, nil
}

func (f *fakeStorage) Set(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = data
	return nil
}

func requireSameLines(t *testing.T, want, got []LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		require.True(t, w.UnitPrice.Equal(g.UnitPrice))
		require.True(t, w.Item.Price.Equal(g.Item.Price))
		w.UnitPrice, g.UnitPrice = decimal.Zero, decimal.Zero
		w.Item.Price, g.Item.Price = decimal.Zero, decimal.Zero
		require.Equal(t, w, g)
	}
}

func TestStore_PersistsEveryTransition(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	store := NewStore(storage, "session-1")

	snap := store.Open(ctx)
	assert.True(t, snap.IsEmpty())

	_, err := store.Dispatch(ctx, Add{Item: newItem("a", 10), Quantity: 2})
	require.NoError(t, err)
	snap, err = store.Dispatch(ctx, Add{Item: newItem("b", 5), Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, storage.sets)
	assert.Equal(t, 3, snap.ItemCount)
	assert.True(t, decimal.NewFromInt(25).Equal(snap.Subtotal))

	// A fresh store over the same key sees the same cart.
	reopened := NewStore(storage, "session-1")
	requireSameLines(t, snap.Lines, reopened.Open(ctx).Lines)
}

func TestStore_OpenReadsOnce(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	store := NewStore(storage, "k")

	store.Open(ctx)
	store.Open(ctx)
	_, err := store.Dispatch(ctx, Clear{})
	require.NoError(t, err)

	assert.Equal(t, 1, storage.gets)
}

func TestStore_DispatchOpensImplicitly(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	storage.data["k"] = Encode([]LineItem{{ID: "a", Item: newItem("a", 10), Quantity: 1, UnitPrice: decimal.NewFromInt(10)}})

	snap, err := NewStore(storage, "k").Dispatch(ctx, Add{Item: newItem("a", 10), Quantity: 1})
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
}

func TestStore_DegradedStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt data yields empty cart", func(t *testing.T) {
		storage := newFakeStorage()
		storage.data["k"] = []byte(`{"not":"a list"}`)

		snap := NewStore(storage, "k").Open(ctx)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("unreachable storage yields empty cart", func(t *testing.T) {
		storage := newFakeStorage()
		storage.getErr = errors.New("connection refused")

		snap := NewStore(storage, "k").Open(ctx)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("write failure is not surfaced", func(t *testing.T) {
		storage := newFakeStorage()
		storage.setErr = errors.New("read only")

		snap, err := NewStore(storage, "k").Dispatch(ctx, Add{Item: newItem("a", 1), Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, snap.ItemCount)
	})
}

func TestStore_RejectsInvalidActions(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	store := NewStore(storage, "k")

	for name, a := range map[string]Action{
		"nil":              nil,
		"add without id":   Add{Item: catalog.Item{Title: "No id"}, Quantity: 1},
		"add zero":         Add{Item: newItem("a", 1), Quantity: 0},
		"remove blank":     Remove{ID: " "},
		"set quantity blk": SetQuantity{ID: "", Quantity: 2},
		"add too many":     Add{Item: newItem("a", 1), Quantity: MaxQuantity + 1},
		"set too many":     SetQuantity{ID: "a", Quantity: math.MaxInt},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := store.Dispatch(ctx, a)
			require.ErrorIs(t, err, ErrInvalidAction)
		})
	}
	assert.Zero(t, storage.sets)
}
