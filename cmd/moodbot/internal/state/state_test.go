// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"testing"
	"time"

	"go.astrophena.name/moodbot/internal/store"
	"go.astrophena.name/moodbot/internal/testutil"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db := New(store.NewMemStore())
	db.now = func() time.Time {
		return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	}
	return db
}

func TestUsers(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	ctx := t.Context()

	u, err := db.User(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Fatalf("unknown chat: want nil, got %+v", u)
	}

	if err := db.Activate(ctx, 123); err != nil {
		t.Fatal(err)
	}
	u, err = db.User(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, u.Active, true)
	started := u.StartedAt

	if err := db.Deactivate(ctx, 123); err != nil {
		t.Fatal(err)
	}
	u, err = db.User(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, u.Active, false)

	// Reactivation keeps the original start time.
	db.now = func() time.Time {
		return time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	}
	if err := db.Activate(ctx, 123); err != nil {
		t.Fatal(err)
	}
	u, err = db.User(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, u.Active, true)
	testutil.AssertEqual(t, u.StartedAt, started)

	// Deactivating an unknown chat does nothing.
	if err := db.Deactivate(ctx, 456); err != nil {
		t.Fatal(err)
	}
	u, err = db.User(ctx, 456)
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Fatalf("deactivated unknown chat should not be created, got %+v", u)
	}
}

func TestActiveChats(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	ctx := t.Context()

	// Chat IDs sort numerically, not lexically.
	for _, chat := range []int64{123, 9, 10} {
		if err := db.Activate(ctx, chat); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Deactivate(ctx, 10); err != nil {
		t.Fatal(err)
	}

	chats, err := db.ActiveChats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, chats, []int64{9, 123})
}

func TestDrafts(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	ctx := t.Context()

	d, err := db.Draft(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("no draft stored: want nil, got %+v", d)
	}

	want := &Draft{Kind: "morning", StartedAt: db.now()}
	if err := db.SetDraft(ctx, 123, want); err != nil {
		t.Fatal(err)
	}

	d, err = db.Draft(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, d, want)

	d.Answers = append(d.Answers, "Sleep: great")
	if err := db.SetDraft(ctx, 123, d); err != nil {
		t.Fatal(err)
	}
	d, err = db.Draft(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, d.Answers, []string{"Sleep: great"})

	if err := db.DeleteDraft(ctx, 123); err != nil {
		t.Fatal(err)
	}
	d, err = db.Draft(ctx, 123)
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("deleted draft: want nil, got %+v", d)
	}

	// Deleting a missing draft is not an error.
	if err := db.DeleteDraft(ctx, 123); err != nil {
		t.Fatal(err)
	}
}

func TestResetDrafts(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	ctx := t.Context()

	for _, chat := range []int64{1, 2, 3} {
		if err := db.SetDraft(ctx, chat, &Draft{Kind: "evening", StartedAt: db.now()}); err != nil {
			t.Fatal(err)
		}
	}
	// Users survive a reset.
	if err := db.Activate(ctx, 1); err != nil {
		t.Fatal(err)
	}

	n, err := db.ResetDrafts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, n, 3)

	for _, chat := range []int64{1, 2, 3} {
		d, err := db.Draft(ctx, chat)
		if err != nil {
			t.Fatal(err)
		}
		if d != nil {
			t.Fatalf("draft for chat %d survived reset: %+v", chat, d)
		}
	}

	chats, err := db.ActiveChats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, chats, []int64{1})

	n, err = db.ResetDrafts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, n, 0)
}
