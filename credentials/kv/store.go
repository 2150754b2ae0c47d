package kv

import "context"

// Store is the persistence contract behind the credential store. It is an
// opaque key-value holder: values are raw bytes, keys are fixed strings.
type Store interface {
	// Get returns the value stored under key and whether it was found.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
