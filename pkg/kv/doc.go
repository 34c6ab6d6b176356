// Package kv provides the durable key-value storage behind client-side state.
//
// A Store is a flat byte-oriented map that survives process restarts. Three
// backends are provided:
//   - Memory keeps values in process memory (tests, embedding in a long-lived process)
//   - File keeps values in a single JSON document on disk (CLI profiles)
//   - Redis keeps values in Redis under a key prefix (shared state between processes)
//
// # Typed keys
//
// Components never touch raw bytes. They declare typed keys and read or write
// them through the generic helpers:
//
//	var username = kv.String("username")
//	var isAdmin = kv.Bool("isAdmin")
//	var snapshot = kv.JSON[[]Item]("cart")
//
//	name, err := kv.Get(ctx, slice, username)
//
// Bool keys are stored as the literal strings "true" and "false".
//
// # Slices
//
// A Slice is a view over a Store restricted to the keys a single component
// owns. Each component receives only its slice, so two components can never
// contend on the same key:
//
//	sessionSlice := kv.NewSlice(store, username, isAdmin)
//	cartSlice := kv.NewSlice(store, snapshot)
//
// Accessing a key outside the slice returns ErrKeyNotOwned.
package kv
