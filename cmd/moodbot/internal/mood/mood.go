// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package mood implements mood entries: classification of free-form mood
// messages and durable appends to the mood log.
package mood

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Entry is a single mood observation.
type Entry struct {
	Time   time.Time
	ChatID int64
	Label  string
	Note   string
}

// Row returns the spreadsheet row form of the entry. Rows are append-only
// and never mutated afterwards.
func (e Entry) Row() []string {
	return []string{
		e.Time.UTC().Format(time.RFC3339),
		strconv.FormatInt(e.ChatID, 10),
		e.Label,
		e.Note,
	}
}

var (
	errNoChat  = errors.New("mood: entry has no chat ID")
	errNoTime  = errors.New("mood: entry has no timestamp")
	errNoLabel = errors.New("mood: entry has no label")
)

func (e Entry) validate() error {
	switch {
	case e.ChatID == 0:
		return errNoChat
	case e.Time.IsZero():
		return errNoTime
	case e.Label == "":
		return errNoLabel
	}
	return nil
}

// vocabulary maps recognized mood words and emoji to canonical labels.
var vocabulary = map[string]string{
	"happy":    "happy",
	"great":    "happy",
	"😄":        "happy",
	"😁":        "happy",
	"good":     "good",
	"fine":     "good",
	"🙂":        "good",
	"meh":      "meh",
	"ok":       "meh",
	"okay":     "meh",
	"😐":        "meh",
	"sad":      "sad",
	"down":     "sad",
	"☹️":       "sad",
	"🙁":        "sad",
	"awful":    "awful",
	"terrible": "awful",
	"😖":        "awful",
	"😭":        "awful",
}

// Classify reports whether text is a mood message: a recognized mood word or
// emoji, optionally followed by a colon and a free-form note.
func Classify(text string) (label, note string, ok bool) {
	head, tail, cut := strings.Cut(text, ":")
	label, ok = vocabulary[strings.ToLower(strings.TrimSpace(head))]
	if !ok {
		return "", "", false
	}
	if cut {
		note = strings.TrimSpace(tail)
	}
	return label, note, true
}
