package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
)

func setupStorage(t *testing.T, ttl time.Duration) (*CartStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCartStorage(client, "", ttl), mr
}

func TestCartStorage_Miss(t *testing.T) {
	s, _ := setupStorage(t, time.Hour)

	_, err := s.Get(context.Background(), "nobody")
	require.ErrorIs(t, err, cart.ErrStorageMiss)
}

func TestCartStorage_SetGet(t *testing.T) {
	s, mr := setupStorage(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sess", []byte(`[]`)))

	got, err := s.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"sess"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultKeyPrefix+"sess"))
}

func TestCartStorage_Expires(t *testing.T) {
	s, mr := setupStorage(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sess", []byte(`[]`)))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "sess")
	require.ErrorIs(t, err, cart.ErrStorageMiss)
}

func TestCartStorage_Unreachable(t *testing.T) {
	s, mr := setupStorage(t, time.Hour)
	mr.Close()

	_, err := s.Get(context.Background(), "sess")
	require.Error(t, err)
	require.NotErrorIs(t, err, cart.ErrStorageMiss)
	require.Error(t, s.Ping(context.Background()))
}

func TestCartStorage_BacksStore(t *testing.T) {
	s, mr := setupStorage(t, time.Hour)
	ctx := context.Background()
	item := catalog.Normalize(catalog.Item{ID: "kit", Title: "Kit", Price: decimal.NewFromInt(12)})

	store := cart.NewStore(s, "sess")
	_, err := store.Dispatch(ctx, cart.Add{Item: item, Quantity: 3})
	require.NoError(t, err)

	snap := cart.NewStore(s, "sess").Open(ctx)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.ItemCount)
	assert.True(t, decimal.NewFromInt(36).Equal(snap.Subtotal))

	mr.Set(DefaultKeyPrefix+"sess", "garbage")
	assert.True(t, cart.NewStore(s, "sess").Open(ctx).IsEmpty())
}
