// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package scheduler fires check-in surveys at fixed wall-clock times and
// broadcasts them to every active chat.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"go.astrophena.name/moodbot/cmd/moodbot/internal/survey"
	"go.astrophena.name/moodbot/internal/util/syncx"
)

// broadcastConcurrency bounds how many survey sends are in flight at once.
const broadcastConcurrency = 2

// fireTimes are the wall-clock hours surveys go out, in the scheduler's
// location.
var fireTimes = [...]struct {
	hour int
	kind survey.Kind
}{
	{10, survey.Morning},
	{15, survey.Day},
	{21, survey.Evening},
}

// Opts configures a [Scheduler].
type Opts struct {
	// Chats lists the chats to broadcast to.
	Chats func(context.Context) ([]int64, error)
	// Start begins the survey in a single chat.
	Start func(ctx context.Context, chatID int64, kind survey.Kind) error
	// Location is the time zone fire times are interpreted in.
	Location *time.Location
	// Logger is used for progress and failure reporting.
	Logger *slog.Logger
}

// Scheduler sends surveys on a fixed daily schedule.
type Scheduler struct {
	chats func(context.Context) ([]int64, error)
	start func(context.Context, int64, survey.Kind) error
	loc   *time.Location
	slog  *slog.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) bool
}

// New returns a [Scheduler].
func New(opts Opts) *Scheduler {
	s := &Scheduler{
		chats: opts.Chats,
		start: opts.Start,
		loc:   opts.Location,
		slog:  opts.Logger,
		now:   time.Now,
		sleep: sleep,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.slog == nil {
		s.slog = slog.Default()
	}
	return s
}

// Run fires surveys until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		at, kind := s.next(s.now())
		s.slog.Info("scheduled next survey", "kind", kind, "at", at)
		if !s.sleep(ctx, at.Sub(s.now())) {
			return
		}
		s.broadcast(ctx, kind)
	}
}

// next returns the first fire time after now and the survey that goes out
// then.
func (s *Scheduler) next(now time.Time) (time.Time, survey.Kind) {
	now = now.In(s.loc)

	var (
		best time.Time
		kind survey.Kind
	)
	// Today's remaining fire times, then tomorrow's.
	for day := range 2 {
		for _, ft := range fireTimes {
			at := time.Date(now.Year(), now.Month(), now.Day()+day, ft.hour, 0, 0, 0, s.loc)
			if at.After(now) && (best.IsZero() || at.Before(best)) {
				best = at
				kind = ft.kind
			}
		}
	}
	return best, kind
}

func (s *Scheduler) broadcast(ctx context.Context, kind survey.Kind) {
	chats, err := s.chats(ctx)
	if err != nil {
		s.slog.Error("listing active chats failed", "kind", kind, "err", err)
		return
	}

	lwg := syncx.NewLimitedWaitGroup(broadcastConcurrency)
	for _, chat := range chats {
		lwg.Add(1)
		go func() {
			defer lwg.Done()
			if err := s.start(ctx, chat, kind); err != nil {
				s.slog.Error("sending survey failed", "chat_id", chat, "kind", kind, "err", err)
			}
		}()
	}
	lwg.Wait()

	s.slog.Info("survey broadcast finished", "kind", kind, "chats", len(chats))
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
