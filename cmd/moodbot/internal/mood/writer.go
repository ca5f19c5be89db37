// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package mood

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.astrophena.name/moodbot/internal/api/google/sheets"
)

const (
	// appendAttempts is how many times an append is tried before giving up.
	appendAttempts = 3
	// maxBackoff caps the delay between attempts.
	maxBackoff = 2 * time.Second
)

// PersistenceError is returned by [Writer.Append] when an entry could not be
// appended after several attempts.
type PersistenceError struct {
	Attempts int   // how many times the append was tried
	Err      error // the last error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("mood: append failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Writer appends entries to the mood log, retrying failed appends with
// backoff.
//
// Appends are at-least-once: a retried append that actually reached the
// spreadsheet produces a duplicate row, which is preferable to losing the
// entry.
type Writer struct {
	appendRow func(context.Context, []string) error
	sleep     func(context.Context, time.Duration) bool
	slog      *slog.Logger
}

// NewWriter returns a [Writer] that appends entries via the sheets client.
func NewWriter(sc *sheets.Client, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		appendRow: sc.AppendRow,
		sleep:     sleep,
		slog:      logger,
	}
}

// Append validates the entry and appends it to the mood log. It returns a
// [*PersistenceError] if all attempts fail, or ctx.Err() if the context is
// canceled while waiting to retry.
func (w *Writer) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	row := e.Row()

	var lastErr error
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		if attempt > 1 {
			delay := min(time.Duration(1<<(attempt-2))*time.Second, maxBackoff)
			if !w.sleep(ctx, delay) {
				return ctx.Err()
			}
		}
		lastErr = w.appendRow(ctx, row)
		if lastErr == nil {
			return nil
		}
		w.slog.Warn("appending mood entry failed", "attempt", attempt, "chat_id", e.ChatID, "err", lastErr)
	}
	return &PersistenceError{Attempts: appendAttempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
