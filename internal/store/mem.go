// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"context"
	"slices"
	"strings"

	"go.astrophena.name/moodbot/internal/util/syncx"
)

// MemStore is an in-memory implementation of the [Store] interface.
//
// It keeps everything in process memory and is intended for tests and
// short-lived runs.
type MemStore struct {
	data syncx.Map[string, []byte]
}

// NewMemStore creates a new MemStore.
func NewMemStore() *MemStore { return &MemStore{} }

// Get retrieves a value for a given key.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := s.data.Load(key)
	if !ok {
		return nil, nil
	}
	// Return a copy to prevent the caller from mutating the stored value.
	return append([]byte(nil), value...), nil
}

// Set stores a value for a given key.
func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	// Store a copy to prevent the caller from mutating the stored value.
	s.data.Store(key, append([]byte(nil), value...))
	return nil
}

// Delete removes a key.
func (s *MemStore) Delete(_ context.Context, key string) error {
	s.data.Delete(key)
	return nil
}

// List returns all keys starting with prefix, sorted.
func (s *MemStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	s.data.Range(func(key string, _ []byte) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error { return nil }
