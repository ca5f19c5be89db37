// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/moodbot/internal/api/telegram"
	"go.astrophena.name/moodbot/internal/web"
)

// Trigger actions.
const (
	// ActionReport sends a digest of recent mood entries to the owner chat.
	ActionReport = "report"
	// ActionReset discards all pending survey drafts.
	ActionReset = "reset"
	// ActionNoop authenticates and does nothing.
	ActionNoop = "noop"
)

// TriggerRequest is the body of a trigger request.
type TriggerRequest struct {
	Secret string `json:"secret"`
	Action string `json:"action"`
}

// reportRows is how many trailing log rows a report includes.
const reportRows = 10

var errNoOwner = errors.New("bot: no owner chat configured")

// Trigger handles an administrative action. It is exposed as an HTTP handler
// via [web.HandleJSON].
func (b *Bot) Trigger(r *http.Request, req TriggerRequest) (map[string]any, error) {
	if !SecretsEqual(req.Secret, b.secret) {
		return nil, fmt.Errorf("%w: invalid secret", web.ErrUnauthorized)
	}

	switch req.Action {
	case ActionNoop:
		return map[string]any{"status": "ok"}, nil
	case ActionReset:
		n, err := b.db.ResetDrafts(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok", "drafts_discarded": n}, nil
	case ActionReport:
		if err := b.report(r.Context()); err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok"}, nil
	}
	return nil, fmt.Errorf("%w: unknown action %q", web.ErrBadRequest, req.Action)
}

func (b *Bot) report(ctx context.Context) error {
	if b.owner == 0 {
		return errNoOwner
	}

	rows, err := b.sheets.ReadRows(ctx, reportRows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return b.tg.Send(ctx, telegram.Message{ChatID: b.owner, Text: "The mood log is empty."})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Last %d mood entries**\n", len(rows))
	for _, row := range rows {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString("\n")
	}
	return b.tg.Send(ctx, telegram.Message{ChatID: b.owner, Text: sb.String()})
}
