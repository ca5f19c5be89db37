// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"context"
	"fmt"
	"strings"

	"go.astrophena.name/moodbot/cmd/moodbot/internal/survey"
	"go.astrophena.name/moodbot/internal/api/telegram"
)

const helpText = `Available commands:
/morning: start the morning survey now
/day: start the day survey now
/evening: start the evening survey now
/mood: how to log a quick mood entry
/stop: pause scheduled surveys
/help: show this message`

const moodText = `Send a mood word to log how you feel, optionally followed by a colon and a note. For example: "meh: slow day".
Moods I understand: happy 😄, good 🙂, meh 😐, sad ☹️, awful 😖.`

func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) error {
	cmd, _, _ := strings.Cut(text, " ")
	// Commands sent in groups carry the bot username: "/start@moodbot".
	cmd, _, _ = strings.Cut(cmd, "@")

	switch cmd {
	case "/start":
		if err := b.db.Activate(ctx, chatID); err != nil {
			return err
		}
		welcome := fmt.Sprintf("Hi! I will send you check-in surveys at 10:00, 15:00 and 21:00 (%s).\nCommands: /morning /day /evening /mood /stop /help", b.tz)
		return b.tg.Send(ctx, telegram.Message{ChatID: chatID, Text: welcome})
	case "/stop":
		if err := b.db.Deactivate(ctx, chatID); err != nil {
			return err
		}
		return b.tg.Send(ctx, telegram.Message{
			ChatID:      chatID,
			Text:        "Ok, reminders are paused. Send /start to resume.",
			ReplyMarkup: telegram.KeyboardRemove{},
		})
	case "/help":
		return b.tg.Send(ctx, telegram.Message{ChatID: chatID, Text: helpText})
	case "/mood":
		return b.tg.Send(ctx, telegram.Message{ChatID: chatID, Text: moodText})
	case "/morning":
		return b.StartSurvey(ctx, chatID, survey.Morning)
	case "/day":
		return b.StartSurvey(ctx, chatID, survey.Day)
	case "/evening":
		return b.StartSurvey(ctx, chatID, survey.Evening)
	}

	b.slog.Debug("ignoring unknown command", "chat_id", chatID, "command", cmd)
	return nil
}
