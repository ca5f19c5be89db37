// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package survey

import (
	"strings"
	"testing"

	"go.astrophena.name/moodbot/internal/testutil"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, d := range All() {
		got, ok := Lookup(d.Kind)
		if !ok {
			t.Fatalf("Lookup(%q) = not found", d.Kind)
		}
		testutil.AssertEqual(t, got.Title, d.Title)
	}

	if _, ok := Lookup("night"); ok {
		t.Fatal("Lookup(night): want not found")
	}
}

func TestKeyboard(t *testing.T) {
	t.Parallel()

	for _, d := range All() {
		kb := d.Keyboard()
		testutil.AssertEqual(t, len(kb.Buttons), len(d.Questions)+1)
		for i, q := range d.Questions {
			testutil.AssertEqual(t, kb.Buttons[i], []string{q})
		}
		testutil.AssertEqual(t, kb.Buttons[len(kb.Buttons)-1], []string{DoneButton})
	}
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	d, ok := Lookup(Morning)
	if !ok {
		t.Fatal("morning survey not defined")
	}
	p := d.Prompt()
	if !strings.Contains(p, d.Title) {
		t.Errorf("want prompt to contain %q, got %q", d.Title, p)
	}
	if !strings.Contains(p, DoneButton) {
		t.Errorf("want prompt to contain %q, got %q", DoneButton, p)
	}
}
