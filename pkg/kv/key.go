package kv

import (
	"encoding/json"
	"errors"
)

// Key is a typed handle for one entry of a Store.
type Key[T any] struct {
	encode func(T) ([]byte, error)
	decode func([]byte) (T, error)
	name   string
}

// Name returns the storage key.
func (k Key[T]) Name() string {
	return k.name
}

// Named is implemented by every Key regardless of its value type.
type Named interface {
	Name() string
}

// String declares a key holding a plain string.
func String(name string) Key[string] {
	return Key[string]{
		name:   name,
		encode: func(v string) ([]byte, error) { return []byte(v), nil },
		decode: func(b []byte) (string, error) { return string(b), nil },
	}
}

// Bool declares a key holding "true" or "false".
// Any stored value other than "true" reads as false.
func Bool(name string) Key[bool] {
	return Key[bool]{
		name: name,
		encode: func(v bool) ([]byte, error) {
			if v {
				return []byte("true"), nil
			}
			return []byte("false"), nil
		},
		decode: func(b []byte) (bool, error) { return string(b) == "true", nil },
	}
}

// JSON declares a key holding a JSON-encoded value.
func JSON[T any](name string) Key[T] {
	return Key[T]{
		name: name,
		encode: func(v T) ([]byte, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Join(ErrEncode, err)
			}
			return b, nil
		},
		decode: func(b []byte) (T, error) {
			var v T
			if err := json.Unmarshal(b, &v); err != nil {
				return v, errors.Join(ErrDecode, err)
			}
			return v, nil
		},
	}
}

// Encode returns the stored representation of v.
func (k Key[T]) Encode(v T) ([]byte, error) {
	return k.encode(v)
}
