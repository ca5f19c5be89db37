// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package store implements a durable key-value store backed in-memory, by a
// JSON file, by SQLite or by PostgreSQL.
package store

import (
	"context"
	"strings"
)

// Store is a generic interface for a key-value store.
type Store interface {
	// Get retrieves a value for a given key.
	// It must return (nil, nil) if the key is not found.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value for a given key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close closes the store and releases any resources.
	Close() error
}

// Open opens a store selected by path.
//
// An empty path opens an in-memory store. A postgres:// or postgresql:// URL
// opens a PostgreSQL store. A path ending in .json opens a store backed by a
// JSON file. Any other path opens a SQLite store.
func Open(ctx context.Context, path string) (Store, error) {
	switch {
	case path == "":
		return NewMemStore(), nil
	case strings.HasPrefix(path, "postgres://"), strings.HasPrefix(path, "postgresql://"):
		return NewPostgresStore(ctx, path)
	case strings.HasSuffix(path, ".json"):
		return NewJSONFile(path)
	default:
		return NewSQLiteStore(ctx, path)
	}
}
