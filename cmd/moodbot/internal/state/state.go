// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package state persists moodbot's chat registry and in-progress survey
// drafts in a key-value store.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.astrophena.name/moodbot/internal/store"
)

// Key prefixes in the underlying store.
const (
	userPrefix  = "user/"
	draftPrefix = "draft/"
)

// User is a chat known to the bot.
type User struct {
	ChatID    int64     `json:"chat_id"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
}

// Draft is an in-progress survey: the answers collected so far for a chat.
type Draft struct {
	Kind      string    `json:"kind"`
	Answers   []string  `json:"answers"`
	StartedAt time.Time `json:"started_at"`
}

// DB wraps a [store.Store] with typed access to users and drafts.
type DB struct {
	kv  store.Store
	now func() time.Time
}

// New returns a [DB] backed by kv.
func New(kv store.Store) *DB {
	return &DB{kv: kv, now: time.Now}
}

func userKey(chatID int64) string  { return userPrefix + strconv.FormatInt(chatID, 10) }
func draftKey(chatID int64) string { return draftPrefix + strconv.FormatInt(chatID, 10) }

// User returns the stored user for the chat, or nil if the chat is unknown.
func (db *DB) User(ctx context.Context, chatID int64) (*User, error) {
	return get[User](ctx, db, userKey(chatID))
}

// Activate marks the chat as active, creating it if needed. Reactivating a
// known chat keeps its original start time.
func (db *DB) Activate(ctx context.Context, chatID int64) error {
	u, err := db.User(ctx, chatID)
	if err != nil {
		return err
	}
	if u == nil {
		u = &User{ChatID: chatID, StartedAt: db.now().UTC()}
	}
	u.Active = true
	return db.put(ctx, userKey(chatID), u)
}

// Deactivate marks the chat as inactive. The chat is kept, not deleted, so
// its history survives. Deactivating an unknown chat does nothing.
func (db *DB) Deactivate(ctx context.Context, chatID int64) error {
	u, err := db.User(ctx, chatID)
	if err != nil || u == nil {
		return err
	}
	u.Active = false
	return db.put(ctx, userKey(chatID), u)
}

// ActiveChats returns the IDs of all active chats in ascending order.
func (db *DB) ActiveChats(ctx context.Context) ([]int64, error) {
	keys, err := db.kv.List(ctx, userPrefix)
	if err != nil {
		return nil, err
	}
	var chats []int64
	for _, key := range keys {
		u, err := get[User](ctx, db, key)
		if err != nil {
			return nil, err
		}
		if u != nil && u.Active {
			chats = append(chats, u.ChatID)
		}
	}
	slices.Sort(chats)
	return chats, nil
}

// Draft returns the in-progress survey for the chat, or nil if there is none.
func (db *DB) Draft(ctx context.Context, chatID int64) (*Draft, error) {
	return get[Draft](ctx, db, draftKey(chatID))
}

// SetDraft stores the in-progress survey for the chat.
func (db *DB) SetDraft(ctx context.Context, chatID int64, d *Draft) error {
	return db.put(ctx, draftKey(chatID), d)
}

// DeleteDraft removes the in-progress survey for the chat, if any.
func (db *DB) DeleteDraft(ctx context.Context, chatID int64) error {
	return db.kv.Delete(ctx, draftKey(chatID))
}

// ResetDrafts discards all in-progress surveys and reports how many were
// discarded.
func (db *DB) ResetDrafts(ctx context.Context) (int, error) {
	keys, err := db.kv.List(ctx, draftPrefix)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := db.kv.Delete(ctx, key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func get[T any](ctx context.Context, db *DB, key string) (*T, error) {
	b, err := db.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("state: unmarshaling %s: %w", key, err)
	}
	return v, nil
}

func (db *DB) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: marshaling %s: %w", key, err)
	}
	return db.kv.Set(ctx, key, b)
}
