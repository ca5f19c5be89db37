// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Moodbot is a Telegram bot that keeps a mood journal in a Google spreadsheet.

Moodbot receives Telegram updates via webhook. A message is either a command,
a quick mood entry (a mood word, optionally followed by a colon and a note,
for example "meh: slow day") or an answer to a check-in survey. Completed
entries are appended as rows to a spreadsheet, so the journal is a plain sheet
you can chart and filter as you like.

Three check-in surveys are sent to every active chat during the day: morning
(10:00), day (15:00) and evening (21:00), in the configured time zone. A
survey shows a reply keyboard with one row per question; tapping a question
sends it back as a template to edit, and the final "Done ✅" button saves the
collected answers as a single row.

# Usage

	$ moodbot [flags...]

# Commands

The bot understands the following commands:

  - /start: Activate the chat, the bot begins sending check-in surveys.
  - /stop: Pause check-in surveys; history is kept.
  - /morning, /day, /evening: Start a survey right now.
  - /mood: Explain how to log a quick mood entry.
  - /help: List the available commands.

# Trigger Endpoint

POST /api/trigger accepts a JSON body {"secret": "...", "action": "..."} and
performs an administrative action:

  - report: Send a digest of recent log rows to the owner chat.
  - reset: Discard all in-progress survey drafts.
  - noop: Authenticate and do nothing.

# Environment Variables

The following environment variables can be used to configure Moodbot:

  - ADDR: The network address to listen on. Defaults to localhost:3000.
  - BOT_TOKEN: The Telegram Bot API token.
  - GOOGLE_CREDENTIALS: The Google service account key, as a JSON blob.
  - GOOGLE_SHEETS_ID: The ID of the spreadsheet to append entries to.
  - OWNER_CHAT_ID: The chat that receives reports and failure notices.
  - SECRET_KEY: The secret token used to validate Telegram Bot API updates
    and trigger requests.
  - SHEETS_RANGE: The sheet range entries are appended to. Defaults to "Log".
  - STATE_PATH: Where to keep chat and draft state: empty for in-memory, a
    postgres:// or postgresql:// URL for Postgres, a path ending in .json for
    a JSON file, any other path for SQLite.
  - SURVEY_TIMEZONE: The IANA time zone surveys are scheduled in. Defaults to
    Europe/Amsterdam.
  - WEBHOOK_BASE_URL: The public base URL of the bot; <base URL>/telegram is
    registered as the webhook when running in production mode.

# Debug Interface

Moodbot provides a debug interface at /debug with the following endpoints:

  - /debug/logs: Displays the last 300 lines of logs, streamed automatically.

In production mode access to the debug interface requires the secret: pass it
in the X-Moodbot-Secret header or the "secret" query parameter.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/moodbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
