// Package kv provides the durable key-value records that back the calculator:
// one key holds one whole serialized value, and every write replaces it.
package kv

import "context"

// Store is a flat key-value store. Writes replace the whole value atomically.
type Store interface {
	// Get returns the value stored at key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
