// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.astrophena.name/moodbot/internal/testutil"
)

func TestMemStore(t *testing.T) {
	testStore(t, NewMemStore())
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewJSONFile(path)
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen and check that the data survived.
	s2, err := NewJSONFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	v, err := s2.Get(t.Context(), "user/1")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(v), "uno")
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(t.Context(), filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, databaseURL)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Clean up the table before running the test.
	if _, err := s.pool.Exec(ctx, "DELETE FROM kv"); err != nil {
		t.Fatal(err)
	}

	testStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()

	mem, err := Open(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mem.(*MemStore); !ok {
		t.Fatalf("Open(%q) returned %T, want *MemStore", "", mem)
	}

	jf, err := Open(ctx, filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer jf.Close()
	if _, ok := jf.(*JSONFile); !ok {
		t.Fatalf("Open returned %T, want *JSONFile", jf)
	}

	sq, err := Open(ctx, filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer sq.Close()
	if _, ok := sq.(*SQLiteStore); !ok {
		t.Fatalf("Open returned %T, want *SQLiteStore", sq)
	}
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	// Missing keys return nil without an error.
	v, err := s.Get(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("got %q, want nil", v)
	}

	if err := s.Set(ctx, "user/1", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "user/2", []byte("two")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "draft/1", []byte("hello")); err != nil {
		t.Fatal(err)
	}

	v, err = s.Get(ctx, "user/1")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(v), "one")

	// Overwrites replace the value.
	if err := s.Set(ctx, "user/1", []byte("uno")); err != nil {
		t.Fatal(err)
	}
	v, err = s.Get(ctx, "user/1")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(v), "uno")

	keys, err := s.List(ctx, "user/")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, keys, []string{"user/1", "user/2"})

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, all, []string{"draft/1", "user/1", "user/2"})

	if err := s.Delete(ctx, "user/2"); err != nil {
		t.Fatal(err)
	}
	v, err = s.Get(ctx, "user/2")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("got %q after delete, want nil", v)
	}

	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatal(err)
	}
}
