// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bot implements the core logic of moodbot.
//
// It handles Telegram webhook updates: messages are classified as commands,
// survey interactions or mood entries, and recorded entries are appended to
// the mood log. It also serves the privileged trigger route used for
// administrative actions.
package bot

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/moodbot/cmd/moodbot/internal/mood"
	"go.astrophena.name/moodbot/cmd/moodbot/internal/state"
	"go.astrophena.name/moodbot/cmd/moodbot/internal/survey"
	"go.astrophena.name/moodbot/internal/api/google/sheets"
	"go.astrophena.name/moodbot/internal/api/telegram"
	"go.astrophena.name/moodbot/internal/web"
)

// Writer appends mood entries to the durable log.
type Writer interface {
	Append(ctx context.Context, e mood.Entry) error
}

// Opts is the options for creating a new Bot.
type Opts struct {
	// Secret is the shared secret protecting the webhook and trigger routes.
	Secret string
	// Owner is the chat that receives reports and failure notices.
	Owner int64
	// TimeZone is the display name of the survey schedule's location.
	TimeZone string
	// Telegram is the client used to send messages.
	Telegram *telegram.Client
	// Writer records mood entries.
	Writer Writer
	// Sheets reads back recent log rows for reports.
	Sheets *sheets.Client
	// DB holds the chat registry and survey drafts.
	DB *state.DB
	// Logger is used to log handling progress and failures.
	Logger *slog.Logger
}

// Bot implements moodbot's message handling.
type Bot struct {
	secret string
	owner  int64
	tz     string
	tg     *telegram.Client
	writer Writer
	sheets *sheets.Client
	db     *state.DB
	slog   *slog.Logger

	now func() time.Time
}

// New creates a new Bot.
func New(opts Opts) *Bot {
	b := &Bot{
		secret: opts.Secret,
		owner:  opts.Owner,
		tz:     opts.TimeZone,
		tg:     opts.Telegram,
		writer: opts.Writer,
		sheets: opts.Sheets,
		db:     opts.DB,
		slog:   opts.Logger,
		now:    time.Now,
	}
	if b.slog == nil {
		b.slog = slog.Default()
	}
	return b
}

// SecretsEqual reports whether two shared secrets match. The comparison takes
// constant time.
func SecretsEqual(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}

var statusOK = map[string]string{
	"status": "ok",
}

// HandleTelegramWebhook handles a Telegram webhook request.
func (b *Bot) HandleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if !SecretsEqual(r.Header.Get("X-Telegram-Bot-Api-Secret-Token"), b.secret) {
		web.RespondJSONError(w, r, web.ErrUnauthorized)
		return
	}

	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		web.RespondJSONError(w, r, fmt.Errorf("%w: invalid update: %v", web.ErrBadRequest, err))
		return
	}

	// Respond 200 even if handling failed, so Telegram doesn't retry the
	// delivery: a storm of duplicate rows is worse than a lost entry.
	if msg := upd.Message; msg != nil && msg.Text != "" {
		if err := b.handleMessage(r.Context(), msg); err != nil {
			b.reportFailure(r.Context(), err)
		}
	}
	web.RespondJSON(w, statusOK)
}

// handleMessage classifies a message and acts on it. First match wins: a
// command, the done button, mood vocabulary, an answer to an in-progress
// survey. Anything else is ignored.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.IncomingMessage) error {
	var (
		chatID = msg.Chat.ID
		text   = strings.TrimSpace(msg.Text)
	)

	if strings.HasPrefix(text, "/") {
		return b.handleCommand(ctx, chatID, text)
	}

	if text == survey.DoneButton {
		return b.finishSurvey(ctx, chatID)
	}

	if label, note, isMood := mood.Classify(text); isMood {
		return b.recordMood(ctx, chatID, label, note)
	}

	draft, err := b.db.Draft(ctx, chatID)
	if err != nil {
		return err
	}
	if draft != nil {
		draft.Answers = append(draft.Answers, text)
		return b.db.SetDraft(ctx, chatID, draft)
	}

	b.slog.Debug("ignoring unrecognized message", "chat_id", chatID)
	return nil
}

// StartSurvey begins a survey in the chat, replacing any draft already in
// progress, and sends the survey prompt with its keyboard.
func (b *Bot) StartSurvey(ctx context.Context, chatID int64, kind survey.Kind) error {
	def, found := survey.Lookup(kind)
	if !found {
		return fmt.Errorf("bot: unknown survey %q", kind)
	}
	if err := b.db.SetDraft(ctx, chatID, &state.Draft{
		Kind:      string(def.Kind),
		StartedAt: b.now().UTC(),
	}); err != nil {
		return err
	}
	return b.tg.Send(ctx, telegram.Message{
		ChatID:      chatID,
		Text:        def.Prompt(),
		ReplyMarkup: def.Keyboard(),
	})
}

func (b *Bot) finishSurvey(ctx context.Context, chatID int64) error {
	draft, err := b.db.Draft(ctx, chatID)
	if err != nil {
		return err
	}
	if draft == nil {
		return b.tg.Send(ctx, telegram.Message{
			ChatID: chatID,
			Text:   "No survey is in progress. Start one with /morning, /day or /evening.",
		})
	}

	entry := mood.Entry{
		Time:   b.now().UTC(),
		ChatID: chatID,
		Label:  draft.Kind,
		Note:   strings.Join(draft.Answers, "; "),
	}
	// Append before deleting the draft: if the append fails, the draft
	// survives and the user can press the done button again.
	if err := b.writer.Append(ctx, entry); err != nil {
		return err
	}
	if err := b.db.DeleteDraft(ctx, chatID); err != nil {
		return err
	}
	return b.tg.Send(ctx, telegram.Message{
		ChatID:      chatID,
		Text:        "Thanks! Saved your answers.",
		ReplyMarkup: telegram.KeyboardRemove{},
	})
}

func (b *Bot) recordMood(ctx context.Context, chatID int64, label, note string) error {
	entry := mood.Entry{
		Time:   b.now().UTC(),
		ChatID: chatID,
		Label:  label,
		Note:   note,
	}
	if err := b.writer.Append(ctx, entry); err != nil {
		return err
	}
	return b.tg.Send(ctx, telegram.Message{
		ChatID: chatID,
		Text:   fmt.Sprintf("Logged **%s**.", label),
	})
}

// reportFailure logs an update handling error. Failures to persist an entry
// additionally notify the owner chat.
func (b *Bot) reportFailure(ctx context.Context, err error) {
	b.slog.Error("handling update failed", "err", err)

	var pe *mood.PersistenceError
	if !errors.As(err, &pe) || b.owner == 0 {
		return
	}
	b.notifyOwner(ctx, fmt.Sprintf("⚠️ Failed to record a mood entry after %d attempts: %v", pe.Attempts, pe.Err))
}

func (b *Bot) notifyOwner(ctx context.Context, text string) {
	if err := b.tg.Send(ctx, telegram.Message{ChatID: b.owner, Text: text}); err != nil {
		b.slog.Error("notifying owner failed", "err", err)
	}
}
