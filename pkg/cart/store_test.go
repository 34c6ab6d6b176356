package cart_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/kv"
)

// countingStore counts writes and can be told to fail them.
type countingStore struct {
	*kv.Memory
	sets atomic.Int32
	fail atomic.Bool
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: kv.NewMemory()}
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.fail.Load() {
		return errors.New("disk full")
	}
	s.sets.Add(1)
	return s.Memory.Set(ctx, key, value)
}

var productA = api.Product{ID: 1, Name: "A", Price: decimal.NewFromInt(10)}

func persisted(t *testing.T, s kv.Store) cart.Cart {
	t.Helper()

	raw, err := s.Get(context.Background(), "cart")
	require.NoError(t, err)
	var c cart.Cart
	require.NoError(t, json.Unmarshal(raw, &c))
	return c
}

func TestStore_Scenarios(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()
	s := cart.NewStore(store)

	c, err := s.Add(ctx, productA, 1)
	require.NoError(t, err)
	require.Len(t, c, 1)
	require.Equal(t, int64(1), c[0].ProductID)
	require.Equal(t, 1, c[0].Quantity)
	require.True(t, c.Total().Equal(decimal.NewFromInt(10)))

	c, err = s.Add(ctx, productA, 1)
	require.NoError(t, err)
	require.Len(t, c, 1)
	require.Equal(t, 2, c[0].Quantity)
	require.True(t, c.Total().Equal(decimal.NewFromInt(20)))

	c, err = s.AdjustQuantity(ctx, 0, -1)
	require.NoError(t, err)
	require.Equal(t, 1, c[0].Quantity)

	c, err = s.AdjustQuantity(ctx, 0, -1)
	require.NoError(t, err)
	require.Empty(t, c)
	require.Empty(t, persisted(t, store))
}

func TestStore_TotalMatchesItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := cart.NewStore(kv.NewMemory())

	products := []api.Product{
		{ID: 1, Name: "A", Price: decimal.RequireFromString("10.50")},
		{ID: 2, Name: "B", Price: decimal.RequireFromString("0.10")},
		{ID: 3, Name: "C", Price: decimal.Zero},
	}
	for i, p := range products {
		_, err := s.Add(ctx, p, i+1)
		require.NoError(t, err)
	}
	_, err := s.Add(ctx, products[1], 7)
	require.NoError(t, err)

	c, err := s.Read(ctx)
	require.NoError(t, err)

	want := decimal.Zero
	for _, it := range c {
		want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	total, err := s.Total(ctx)
	require.NoError(t, err)
	require.True(t, want.Equal(total))
	require.Equal(t, "11.40", total.StringFixed(2))
	require.Equal(t, 1+9+3, c.Count())
}

func TestStore_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newCountingStore()
	s := cart.NewStore(store)

	_, err := s.Add(ctx, productA, 0)
	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
	_, err = s.Add(ctx, api.Product{ID: 0, Price: decimal.NewFromInt(1)}, 1)
	require.ErrorIs(t, err, cart.ErrInvalidProduct)
	_, err = s.Add(ctx, api.Product{ID: 2, Price: decimal.NewFromInt(-1)}, 1)
	require.ErrorIs(t, err, cart.ErrInvalidProduct)

	_, err = s.AdjustQuantity(ctx, 0, 1)
	require.ErrorIs(t, err, cart.ErrIndexOutOfRange)
	_, err = s.Remove(ctx, -1)
	require.ErrorIs(t, err, cart.ErrIndexOutOfRange)

	require.Equal(t, int32(0), store.sets.Load())
}

func TestStore_RemoveAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()
	s := cart.NewStore(store)

	for _, id := range []int64{1, 2, 3} {
		_, err := s.Add(ctx, api.Product{ID: id, Name: "p", Price: decimal.NewFromInt(id)}, 1)
		require.NoError(t, err)
	}

	c, err := s.Remove(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3}, []int64{c[0].ProductID, c[1].ProductID})
	require.Len(t, persisted(t, store), 2)

	require.NoError(t, s.Clear(ctx))
	c, err = s.Read(ctx)
	require.NoError(t, err)
	require.Empty(t, c)
	require.Empty(t, persisted(t, store))
}

func TestStore_WriteThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newCountingStore()
	s := cart.NewStore(store)

	_, err := s.Add(ctx, productA, 2)
	require.NoError(t, err)
	require.Equal(t, int32(1), store.sets.Load())

	// clearing twice writes the empty state once
	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	require.Equal(t, int32(2), store.sets.Load())
}

func TestStore_FailedPersistLeavesCartUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newCountingStore()
	s := cart.NewStore(store)

	_, err := s.Add(ctx, productA, 1)
	require.NoError(t, err)

	store.fail.Store(true)
	_, err = s.Add(ctx, productA, 1)
	require.ErrorIs(t, err, cart.ErrPersist)

	c, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, c[0].Quantity)
	require.Equal(t, 1, persisted(t, store)[0].Quantity)
}

func TestStore_Hydration(t *testing.T) {
	t.Parallel()

	t.Run("restores persisted cart", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()
		_, err := cart.NewStore(store).Add(ctx, productA, 3)
		require.NoError(t, err)

		c, err := cart.NewStore(store).Read(ctx)
		require.NoError(t, err)
		require.Len(t, c, 1)
		require.Equal(t, 3, c[0].Quantity)
		require.Equal(t, "A", c[0].Name)
	})

	t.Run("corrupt snapshot starts empty", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()
		require.NoError(t, store.Set(ctx, "cart", []byte("not json")))

		c, err := cart.NewStore(store).Read(ctx)
		require.NoError(t, err)
		require.Empty(t, c)
	})

	t.Run("invalid lines are repaired", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := kv.NewMemory()
		require.NoError(t, store.Set(ctx, "cart", []byte(
			`[{"productId":1,"name":"A","price":"10","quantity":1},`+
				`{"productId":1,"name":"A","price":"10","quantity":2},`+
				`{"productId":2,"name":"B","price":"5","quantity":0}]`)))

		c, err := cart.NewStore(store).Read(ctx)
		require.NoError(t, err)
		require.Len(t, c, 1)
		require.Equal(t, 3, c[0].Quantity)
	})
}

func TestCart_OrderRequest(t *testing.T) {
	t.Parallel()

	c := cart.Cart{
		{ProductID: 1, Name: "A", UnitPrice: decimal.NewFromInt(10), Quantity: 2},
		{ProductID: 4, Name: "D", UnitPrice: decimal.NewFromInt(1), Quantity: 1},
	}
	require.Equal(t, api.OrderRequest{Items: []api.OrderLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 4, Quantity: 1},
	}}, c.OrderRequest())
}
