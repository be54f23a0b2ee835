// Package storage is the client's persistent key–value store: the terminal
// counterpart of browser local storage. Each key is owned by exactly one
// component; the store itself does not enforce ownership.
package storage

import "context"

// Store is a string key–value capability.
//
// Get returns ok=false (and no error) when the key is absent. Remove of an
// absent key is not an error. GetOrSet atomically returns the existing value
// or stores and returns create().
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	GetOrSet(ctx context.Context, key string, create func() string) (string, error)
}
