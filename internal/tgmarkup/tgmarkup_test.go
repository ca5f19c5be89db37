// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package tgmarkup

import (
	"testing"

	"go.astrophena.name/moodbot/internal/testutil"
)

func TestFromMarkdown(t *testing.T) {
	cases := map[string]struct {
		in   string
		want Message
	}{
		"plain text": {
			in:   "Hello, world!",
			want: Message{Text: "Hello, world!\n"},
		},
		"bold and italic": {
			in: "**bold** and _italic_",
			want: Message{
				Text: "bold and italic\n",
				Entities: []Entity{
					{Type: Bold, Offset: 0, Length: 4},
					{Type: Italic, Offset: 9, Length: 6},
				},
			},
		},
		"inline code": {
			in: "run `go vet` first",
			want: Message{
				Text: "run go vet first\n",
				Entities: []Entity{
					{Type: Code, Offset: 4, Length: 6},
				},
			},
		},
		"code block": {
			in: "```go\nfmt.Println()\n```",
			want: Message{
				Text: "fmt.Println()\n",
				Entities: []Entity{
					{Type: Pre, Offset: 0, Length: 13, Language: "go"},
				},
			},
		},
		"link": {
			in: "[docs](https://example.com)",
			want: Message{
				Text: "docs\n",
				Entities: []Entity{
					{Type: TextLink, Offset: 0, Length: 4, URL: "https://example.com"},
				},
			},
		},
		"heading is bold": {
			in: "# Title",
			want: Message{
				Text: "Title\n",
				Entities: []Entity{
					{Type: Bold, Offset: 0, Length: 5},
				},
			},
		},
		"blockquote": {
			in: "> quoted",
			want: Message{
				Text: "quoted\n",
				Entities: []Entity{
					{Type: Blockquote, Offset: 0, Length: 7},
				},
			},
		},
		"list": {
			in:   "- first\n- second",
			want: Message{Text: "first\nsecond\n"},
		},
		"offsets are UTF-16 code units": {
			in: "😄 **wow**",
			want: Message{
				Text: "😄 wow\n",
				Entities: []Entity{
					{Type: Bold, Offset: 3, Length: 3},
				},
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, FromMarkdown(tc.in), tc.want)
		})
	}
}
