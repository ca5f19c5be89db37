// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.astrophena.name/moodbot/internal/request"
	"go.astrophena.name/moodbot/internal/tgmarkup"
)

// Message is an outgoing Telegram message.
type Message struct {
	// ChatID identifies the chat to deliver the message to.
	ChatID int64
	// Text is the message text in Markdown.
	Text string
	// ReplyMarkup, if set, attaches a keyboard change to the message.
	ReplyMarkup ReplyMarkup
}

type sendMessageArgs struct {
	ChatID             int64 `json:"chat_id"`
	LinkPreviewOptions struct {
		IsDisabled bool `json:"is_disabled"`
	} `json:"link_preview_options"`
	ReplyMarkup ReplyMarkup `json:"reply_markup,omitempty"`
	tgmarkup.Message
}

// ReplyMarkup is a keyboard change attached to an outgoing message.
// It is either a [Keyboard] or a [KeyboardRemove].
type ReplyMarkup interface {
	json.Marshaler
	replyMarkup()
}

// Keyboard is a custom reply keyboard shown to the user instead of the
// regular letter keyboard. Pressing a button sends its text as a message.
type Keyboard struct {
	// Buttons are keyboard rows.
	Buttons [][]string
	// OneTime hides the keyboard after the first use.
	OneTime bool
}

func (Keyboard) replyMarkup() {}

// MarshalJSON implements the [json.Marshaler] interface.
func (k Keyboard) MarshalJSON() ([]byte, error) {
	type button struct {
		Text string `json:"text"`
	}
	rows := make([][]button, 0, len(k.Buttons))
	for _, r := range k.Buttons {
		row := make([]button, 0, len(r))
		for _, text := range r {
			row = append(row, button{Text: text})
		}
		rows = append(rows, row)
	}
	return json.Marshal(struct {
		Keyboard        [][]button `json:"keyboard"`
		ResizeKeyboard  bool       `json:"resize_keyboard"`
		OneTimeKeyboard bool       `json:"one_time_keyboard"`
	}{
		Keyboard:        rows,
		ResizeKeyboard:  true,
		OneTimeKeyboard: k.OneTime,
	})
}

// KeyboardRemove removes a previously sent reply keyboard.
type KeyboardRemove struct{}

func (KeyboardRemove) replyMarkup() {}

// MarshalJSON implements the [json.Marshaler] interface.
func (KeyboardRemove) MarshalJSON() ([]byte, error) {
	return []byte(`{"remove_keyboard":true}`), nil
}

// Send sends a message, retrying requests when rate limited.
//
// Messages longer than the Telegram length limit are split into multiple
// ones; the keyboard is attached to the last chunk.
func (c *Client) Send(ctx context.Context, msg Message) error {
	args := &sendMessageArgs{ChatID: msg.ChatID}
	args.LinkPreviewOptions.IsDisabled = true

	chunks := splitMessage(msg.Text)
	for i, chunk := range chunks {
		args.Message = tgmarkup.FromMarkdown(chunk)
		if i == len(chunks)-1 {
			args.ReplyMarkup = msg.ReplyMarkup
		}

		var err error
		for range sendRetryLimit {
			err = c.makeRequest(ctx, "sendMessage", args)
			if err == nil {
				break
			}

			retryable, wait := isRateLimited(err)
			if !retryable {
				break
			}

			c.slog.Warn("sending rate limited, waiting", slog.Int64("chat_id", msg.ChatID), slog.Duration("wait", wait))
			if !c.sleep(ctx, wait) {
				return ctx.Err()
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func splitMessage(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= 4096 {
		return []string{text}
	}

	var chunks []string
	for text != "" {
		if utf8.RuneCountInString(text) <= 4096 {
			chunks = append(chunks, text)
			break
		}

		var (
			lastNewline    = -1
			lastWhitespace = -1
			byteCap        = len(text)
			runeCount      int
		)

		for i, r := range text {
			if runeCount == 4096 {
				byteCap = i
				break
			}
			runeCount++

			if r == '\n' {
				lastNewline = i
				continue
			}
			if unicode.IsSpace(r) {
				lastWhitespace = i
			}
		}

		splitAt := byteCap
		switch {
		case lastNewline > 0:
			splitAt = lastNewline
		case lastWhitespace > 0:
			splitAt = lastWhitespace
		}

		chunk := strings.TrimSpace(text[:splitAt])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimSpace(text[splitAt:])
	}

	return chunks
}

func isRateLimited(err error) (bool, time.Duration) {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		return false, 0
	}

	var errorResponse struct {
		Parameters struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(statusErr.Body, &errorResponse); err != nil {
		return false, 0
	}

	return true, time.Duration(errorResponse.Parameters.RetryAfter) * time.Second
}
