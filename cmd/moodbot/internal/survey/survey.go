// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package survey defines the check-in surveys moodbot sends during the day.
package survey

import (
	"fmt"

	"go.astrophena.name/moodbot/internal/api/telegram"
)

// DoneButton is the reply keyboard button that finishes a survey.
const DoneButton = "Done ✅"

// Kind identifies a survey.
type Kind string

// Surveys sent during the day.
const (
	Morning Kind = "morning"
	Day     Kind = "day"
	Evening Kind = "evening"
)

// Definition describes a single survey: a title and the questions the user is
// asked to answer. Each question names its suggested answers, and tapping a
// question on the reply keyboard sends it back as a template to edit.
type Definition struct {
	Kind      Kind
	Title     string
	Questions []string
}

var defs = []Definition{
	{
		Kind:  Morning,
		Title: "Morning survey",
		Questions: []string{
			"Mood: 😄/🙂/😐/☹️/😖",
			"Sleep: great/ok/poor",
			"Energy: high/medium/low",
		},
	},
	{
		Kind:  Day,
		Title: "Day survey",
		Questions: []string{
			"Focus: high/medium/low",
			"Anxiety: 0/1/2/3/4/5",
		},
	},
	{
		Kind:  Evening,
		Title: "Evening survey",
		Questions: []string{
			"Irritability: 0/1/2/3/4/5",
			"Rumination: none/fleeting/persistent",
		},
	},
}

// All returns every survey in the order they are sent during the day.
func All() []Definition { return defs }

// Lookup returns the definition of the named survey.
func Lookup(kind Kind) (Definition, bool) {
	for _, d := range defs {
		if d.Kind == kind {
			return d, true
		}
	}
	return Definition{}, false
}

// Prompt returns the message sent when the survey starts, in Markdown.
func (d Definition) Prompt() string {
	return fmt.Sprintf("**%s**\nAnswer the questions below and press %q when you are done.", d.Title, DoneButton)
}

// Keyboard returns the reply keyboard shown while the survey is in progress:
// one row per question and a final row with [DoneButton].
func (d Definition) Keyboard() telegram.Keyboard {
	buttons := make([][]string, 0, len(d.Questions)+1)
	for _, q := range d.Questions {
		buttons = append(buttons, []string{q})
	}
	buttons = append(buttons, []string{DoneButton})
	return telegram.Keyboard{Buttons: buttons}
}
