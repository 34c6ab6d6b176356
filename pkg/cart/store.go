package cart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/pkg/api"
	"github.com/dmitrymomot/storefront/pkg/kv"
)

// SnapshotKey is the kv entry holding the serialized cart.
var SnapshotKey = kv.JSON[Cart]("cart")

// Store owns the cart and writes it through to durable storage after every
// mutation. A mutation that cannot be persisted is not applied.
type Store struct {
	slice    *kv.Slice
	logger   *slog.Logger
	items    Cart
	last     []byte
	mu       sync.Mutex
	hydrated bool
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a cart over the "cart" key of store.
func NewStore(store kv.Store, opts ...Option) *Store {
	s := &Store{
		slice:  kv.NewSlice(store, SnapshotKey),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns a copy of the cart, loading it on first use.
func (s *Store) Read(ctx context.Context) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.items), nil
}

// Total returns the cart total.
func (s *Store) Total(ctx context.Context) (decimal.Decimal, error) {
	c, err := s.Read(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Total(), nil
}

// Add puts delta units of p into the cart, incrementing the existing line
// for the same product.
func (s *Store) Add(ctx context.Context, p api.Product, delta int) (Cart, error) {
	if delta < 1 {
		return nil, ErrInvalidQuantity
	}
	if p.ID <= 0 || p.Price.IsNegative() {
		return nil, fmt.Errorf("%w: id=%d", ErrInvalidProduct, p.ID)
	}

	return s.mutate(ctx, func(c Cart) (Cart, error) {
		if i := c.Index(p.ID); i >= 0 {
			c[i].Quantity += delta
			return c, nil
		}
		return append(c, Item{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  delta,
		}), nil
	})
}

// AdjustQuantity applies delta to the item at index. The item is removed
// when its quantity drops to zero or below.
func (s *Store) AdjustQuantity(ctx context.Context, index, delta int) (Cart, error) {
	return s.mutate(ctx, func(c Cart) (Cart, error) {
		if index < 0 || index >= len(c) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		q := c[index].Quantity + delta
		if q <= 0 {
			return slices.Delete(c, index, index+1), nil
		}
		c[index].Quantity = q
		return c, nil
	})
}

// Remove deletes the item at index.
func (s *Store) Remove(ctx context.Context, index int) (Cart, error) {
	return s.mutate(ctx, func(c Cart) (Cart, error) {
		if index < 0 || index >= len(c) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		return slices.Delete(c, index, index+1), nil
	})
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func(Cart) (Cart, error) {
		return Cart{}, nil
	})
	return err
}

func (s *Store) mutate(ctx context.Context, fn func(Cart) (Cart, error)) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}

	next, err := fn(slices.Clone(s.items))
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = Cart{}
	}
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.items = next
	return slices.Clone(next), nil
}

// persist writes c unless it matches the last written snapshot.
func (s *Store) persist(ctx context.Context, c Cart) error {
	raw, err := SnapshotKey.Encode(c)
	if err != nil {
		return errors.Join(ErrPersist, err)
	}
	if s.last != nil && bytes.Equal(raw, s.last) {
		return nil
	}
	if err := s.slice.SetRaw(ctx, SnapshotKey.Name(), raw); err != nil {
		return errors.Join(ErrPersist, err)
	}
	s.last = raw
	return nil
}

func (s *Store) hydrate(ctx context.Context) error {
	if s.hydrated {
		return nil
	}

	stored, err := kv.Get(ctx, s.slice, SnapshotKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		s.items = Cart{}
	case errors.Is(err, kv.ErrDecode):
		s.logger.WarnContext(ctx, "discarding unreadable cart snapshot", slog.Any("error", err))
		s.items = Cart{}
	case err != nil:
		return fmt.Errorf("cart: load: %w", err)
	default:
		s.items = normalize(stored)
		s.last, _ = SnapshotKey.Encode(stored)
	}

	s.hydrated = true
	return nil
}
