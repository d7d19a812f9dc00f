// Package session drives the shopper preview: it maps typed text onto the
// text boxes of one layout variant, switching variant as the number of typed
// lines changes, and reports the warnings the shopper should see.
//
// A Session is not safe for concurrent use. Each call works on the text it
// is given; there is no partial state from earlier calls to merge.
package session

import (
	"regexp"
	"strings"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/layout"
)

// Session is one preview over a fixed set of variants.
type Session struct {
	engine  *fit.Engine
	formats layout.Formats
	family  string

	minLines, maxLines int
	current            int // 0 until a variant is chosen
	boxes              []*fit.Box
	text               []string
	flags              fit.Flags
}

// New returns a session over formats, which are already projected to the
// rendered image size and may be any subset of a layout's variants. Boxes
// start with the geometry of the largest variant. When only one variant is
// present it is selected immediately.
func New(engine *fit.Engine, formats layout.Formats, family string) *Session {
	s := &Session{engine: engine, formats: formats, family: family}
	counts := formats.Counts()
	if len(counts) == 0 {
		return s
	}
	s.minLines, s.maxLines = counts[0], counts[len(counts)-1]
	for _, lf := range formats[s.maxLines] {
		s.boxes = append(s.boxes, fit.NewBox(lf, family))
	}
	s.text = make([]string, len(s.boxes))
	if s.minLines == s.maxLines {
		s.SetLineCount(s.minLines)
	}
	return s
}

// MinLines is the smallest variant available.
func (s *Session) MinLines() int { return s.minLines }

// MaxLines is the largest variant available.
func (s *Session) MaxLines() int { return s.maxLines }

// LineCount is the selected variant, 0 before the first selection.
func (s *Session) LineCount() int { return s.current }

// Warnings returns the flags raised by the last update.
func (s *Session) Warnings() fit.Flags { return s.flags }

// SetLineCount selects the variant for target lines. Targets outside the
// available range are clamped, and a target above the maximum raises
// TooManyLines. It reports whether the variant changed. On a change the
// active boxes take the new geometry and the text already assigned to them
// is fitted again and balanced.
func (s *Session) SetLineCount(target int) bool {
	if !s.selectVariant(target) {
		return false
	}
	for i, b := range s.boxes[:s.current] {
		s.flags |= s.engine.Fit(b, s.text[i], true)
	}
	s.engine.Balance(s.boxes[:s.current])
	return true
}

// selectVariant switches to the variant for target and re-seeds the active
// boxes at their maximum font size, leaving fitting to the caller.
func (s *Session) selectVariant(target int) bool {
	if s.maxLines == 0 {
		return false
	}
	n := target
	if n < s.minLines {
		n = s.minLines
	}
	if n > s.maxLines {
		s.flags |= fit.TooManyLines
		n = s.maxLines
	}
	n = s.available(n)
	if n == s.current {
		return false
	}

	s.current = n
	for i, lf := range s.formats[n] {
		b := s.boxes[i]
		b.Y, b.X, b.Width, b.Align = lf.Y, lf.X, lf.Width, lf.Align
		b.MinFont, b.MaxFont = lf.MinFont, lf.MaxFont
		b.Font = lf.MaxFont
	}
	return true
}

// available returns n if that variant exists, otherwise the next larger one.
func (s *Session) available(n int) int {
	for ; n < s.maxLines; n++ {
		if _, ok := s.formats[n]; ok {
			return n
		}
	}
	return s.maxLines
}

// Display shows a multi-line message: it picks the variant for the number
// of lines, fits each line into its box, clears the unused boxes and
// balances the active ones to a common size.
func (s *Session) Display(lines []string) fit.Flags {
	s.flags = 0
	changed := s.selectVariant(len(lines))
	for i, b := range s.boxes {
		text := ""
		if i < s.current && i < len(lines) {
			text = lines[i]
		}
		s.text[i] = text
		if i < s.current {
			s.flags |= s.engine.Fit(b, text, changed)
		} else {
			s.engine.Fit(b, "", false)
		}
	}
	s.engine.Balance(s.boxes[:s.current])
	return s.flags
}

// DisplayText splits text into lines and displays them.
func (s *Session) DisplayText(text string) fit.Flags {
	return s.Display(SplitLines(text))
}

// SetLine updates a single box, as a single-line input does. No balancing
// is done. An index past the last box raises TooManyLines.
func (s *Session) SetLine(i int, text string) fit.Flags {
	s.flags = 0
	if i < 0 || i >= len(s.boxes) {
		s.flags |= fit.TooManyLines
		return s.flags
	}
	s.text[i] = text
	s.flags |= s.engine.Fit(s.boxes[i], text, false)
	return s.flags
}

// Text returns the text last given to each box, truncation not applied.
func (s *Session) Text() []string {
	return append([]string(nil), s.text[:s.current]...)
}

// Boxes returns the active boxes.
func (s *Session) Boxes() []*fit.Box {
	return s.boxes[:s.current]
}

// Placements returns the active boxes ready to draw.
func (s *Session) Placements() []fit.Placement {
	out := make([]fit.Placement, 0, s.current)
	for _, b := range s.boxes[:s.current] {
		out = append(out, s.engine.Place(b))
	}
	return out
}

// Messages returns the overflow wording for flags. The truncation message
// depends on whether the shopper types into a multi-line or single-line
// input.
func Messages(l *layout.Layout, flags fit.Flags, multiline bool) []string {
	var out []string
	if flags.Has(fit.TooLong) {
		if multiline {
			out = append(out, l.Message(layout.MessageMultiline))
		} else {
			out = append(out, l.Message(layout.MessageSingleline))
		}
	}
	if flags.Has(fit.TooManyLines) {
		out = append(out, l.Message(layout.MessageTooManyLines))
	}
	return out
}

// ── Text helpers ──

var lineBreak = regexp.MustCompile(`\r\n|\n|\r`)

// SplitLines splits text on any line break convention.
func SplitLines(text string) []string {
	return lineBreak.Split(text, -1)
}

// ProductMessage splits a stored product message, whose lines are separated
// by '|'. An empty message has no lines.
func ProductMessage(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

// NoCatalogText marks a product whose thumbnails carry no text.
const NoCatalogText = "---"

// CatalogText returns the thumbnail lines for a product. Catalog text is
// split on line breaks; without it the title is split on spaces, one word
// per line. ok is false when the product opts out of thumbnail text.
func CatalogText(catalogText, title string) (lines []string, ok bool) {
	if catalogText == "" {
		return strings.Split(title, " "), true
	}
	if catalogText == NoCatalogText {
		return nil, false
	}
	return strings.Split(catalogText, "\r\n"), true
}

// CatalogLines drops trailing lines until a variant for the remaining count
// exists. It returns nil when no prefix of lines has a variant.
func CatalogLines(formats layout.Formats, lines []string) []string {
	for n := len(lines); n > 0; n-- {
		if _, ok := formats[n]; ok {
			return lines[:n]
		}
	}
	return nil
}

