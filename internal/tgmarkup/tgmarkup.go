// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package tgmarkup renders Markdown into the plain text plus formatting
// entities form that the Telegram Bot API expects.
package tgmarkup

import (
	"strings"
	"unicode/utf16"

	"rsc.io/markdown"
)

// Message is a rendered message: the visible text and the entities that
// format parts of it. It embeds into Bot API call arguments as is.
type Message struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Type is a message entity type.
// See https://core.telegram.org/bots/api#messageentity.
type Type string

// Entity types produced by [FromMarkdown].
const (
	Bold          Type = "bold"
	Italic        Type = "italic"
	Strikethrough Type = "strikethrough"
	Blockquote    Type = "blockquote"
	Code          Type = "code"
	Pre           Type = "pre"
	TextLink      Type = "text_link"
	URL           Type = "url"
)

// Entity marks a formatted span of the message text. Telegram counts offsets
// and lengths in UTF-16 code units, not bytes or runes.
type Entity struct {
	Type   Type `json:"type"`
	Offset int  `json:"offset"`
	Length int  `json:"length"`
	// URL is the link target, for text_link entities only.
	URL string `json:"url,omitempty"`
	// Language is the syntax highlighting hint, for pre entities only.
	Language string `json:"language,omitempty"`
}

// FromMarkdown renders Markdown text to a [Message].
func FromMarkdown(text string) Message {
	var p markdown.Parser
	doc := p.Parse(text)

	var r renderer
	for _, b := range doc.Blocks {
		r.block(b)
	}
	return Message{
		Text:     r.sb.String(),
		Entities: r.entities,
	}
}

type renderer struct {
	sb       strings.Builder
	entities []Entity
}

// pos returns the current end of the text in UTF-16 code units.
func (r *renderer) pos() int {
	return len(utf16.Encode([]rune(r.sb.String())))
}

// mark records an entity covering everything rendered since start.
func (r *renderer) mark(typ Type, start int) *Entity {
	r.entities = append(r.entities, Entity{
		Type:   typ,
		Offset: start,
		Length: r.pos() - start,
	})
	return &r.entities[len(r.entities)-1]
}

func (r *renderer) block(b markdown.Block) {
	switch b := b.(type) {
	case *markdown.Paragraph:
		r.inlines(b.Text.Inline)
		r.sb.WriteString("\n")
	case *markdown.Heading:
		// Telegram has no headings; render them bold.
		start := r.pos()
		r.inlines(b.Text.Inline)
		r.mark(Bold, start)
		r.sb.WriteString("\n")
	case *markdown.Quote:
		start := r.pos()
		for _, inner := range b.Blocks {
			r.block(inner)
		}
		r.mark(Blockquote, start)
	case *markdown.CodeBlock:
		start := r.pos()
		for i, line := range b.Text {
			if i > 0 {
				r.sb.WriteString("\n")
			}
			r.sb.WriteString(line)
		}
		r.mark(Pre, start).Language = b.Info
		r.sb.WriteString("\n")
	case *markdown.List:
		for _, item := range b.Items {
			item, ok := item.(*markdown.Item)
			if !ok {
				continue
			}
			for _, inner := range item.Blocks {
				r.block(inner)
			}
		}
	case *markdown.ThematicBreak:
		r.sb.WriteString("⸻\n")
	}
}

func (r *renderer) inlines(ins markdown.Inlines) {
	for _, in := range ins {
		r.inline(in)
	}
}

func (r *renderer) inline(i markdown.Inline) {
	switch i := i.(type) {
	case *markdown.Plain:
		r.sb.WriteString(i.Text)
	case *markdown.Strong:
		start := r.pos()
		r.inlines(i.Inner)
		r.mark(Bold, start)
	case *markdown.Emph:
		start := r.pos()
		r.inlines(i.Inner)
		r.mark(Italic, start)
	case *markdown.Del:
		start := r.pos()
		r.inlines(i.Inner)
		r.mark(Strikethrough, start)
	case *markdown.Link:
		start := r.pos()
		r.inlines(i.Inner)
		r.mark(TextLink, start).URL = i.URL
	case *markdown.AutoLink:
		start := r.pos()
		r.sb.WriteString(i.Text)
		r.mark(URL, start)
	case *markdown.Code:
		start := r.pos()
		r.sb.WriteString(i.Text)
		r.mark(Code, start)
	case *markdown.SoftBreak, *markdown.HardBreak:
		r.sb.WriteString("\n")
	}
}
