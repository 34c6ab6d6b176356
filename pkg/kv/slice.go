package kv

import (
	"context"
	"fmt"
	"slices"
)

// Slice restricts a Store to a fixed set of keys.
type Slice struct {
	store Store
	keys  []string
}

// NewSlice returns a view of store that only permits the given keys.
func NewSlice(store Store, keys ...Named) *Slice {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.Name())
	}
	return &Slice{store: store, keys: names}
}

// Keys returns the names owned by the slice.
func (s *Slice) Keys() []string {
	return slices.Clone(s.keys)
}

// Owns reports whether name belongs to the slice.
func (s *Slice) Owns(name string) bool {
	return slices.Contains(s.keys, name)
}

func (s *Slice) check(name string) error {
	if !s.Owns(name) {
		return fmt.Errorf("%w: %q", ErrKeyNotOwned, name)
	}
	return nil
}

// GetRaw returns the stored bytes for name.
func (s *Slice) GetRaw(ctx context.Context, name string) ([]byte, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, name)
}

// SetRaw stores bytes under name.
func (s *Slice) SetRaw(ctx context.Context, name string, value []byte) error {
	if err := s.check(name); err != nil {
		return err
	}
	return s.store.Set(ctx, name, value)
}

// Clear deletes every key of the slice.
func (s *Slice) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.keys...)
}

// Get reads and decodes k. Returns ErrNotFound when the key is absent.
func Get[T any](ctx context.Context, s *Slice, k Key[T]) (T, error) {
	var zero T
	raw, err := s.GetRaw(ctx, k.name)
	if err != nil {
		return zero, err
	}
	return k.decode(raw)
}

// Set encodes and writes v under k.
func Set[T any](ctx context.Context, s *Slice, k Key[T], v T) error {
	if err := s.check(k.name); err != nil {
		return err
	}
	raw, err := k.encode(v)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, k.name, raw)
}

// Delete removes the given keys from the slice.
func Delete(ctx context.Context, s *Slice, keys ...Named) error {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := s.check(k.Name()); err != nil {
			return err
		}
		names = append(names, k.Name())
	}
	return s.store.Delete(ctx, names...)
}
