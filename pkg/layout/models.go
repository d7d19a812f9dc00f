// Package layout describes text-slot layouts: where each line of a shopper's
// message sits over a product image, how large it may be drawn, and how the
// geometry is validated, migrated, scaled and serialized.
package layout

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ── Limits ──

const (
	MaxLines         = 10   // largest line-count variant
	MinImageSize     = 75   // smallest setup width/height
	MaxImageSize     = 2048 // largest setup width/height and geometry value
	DefaultImageSize = 600  // setup and display size when nothing else is known
	MinFontSize      = 6

	// NewLineOffset spaces a synthesized line below its template line,
	// as a multiple of that line's MaxFont.
	NewLineOffset = 1.1
)

// ── Alignment ──

// Align anchors a line's X coordinate at the left edge, centre or right edge
// of its box. It serializes as a single character.
type Align byte

const (
	AlignLeft   Align = 'L'
	AlignCenter Align = 'C'
	AlignRight  Align = 'R'
)

// ParseAlign accepts exactly one of "L", "C" or "R".
func ParseAlign(s string) (Align, error) {
	if len(s) != 1 || !strings.Contains("LCR", s) {
		return 0, fmt.Errorf("invalid align %q", s)
	}
	return Align(s[0]), nil
}

// Valid reports whether a is one of the three alignments.
func (a Align) Valid() bool {
	return a == AlignLeft || a == AlignCenter || a == AlignRight
}

func (a Align) String() string { return string(rune(a)) }

// Anchor returns the SVG text-anchor equivalent. Anything unknown centres.
func (a Align) Anchor() string {
	switch a {
	case AlignLeft:
		return "start"
	case AlignRight:
		return "end"
	default:
		return "middle"
	}
}

// Offset is the distance from a box's left edge to its anchor point.
func (a Align) Offset(width float64) float64 {
	switch a {
	case AlignLeft:
		return 0
	case AlignRight:
		return width
	default:
		return width / 2
	}
}

func (a Align) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid align %q", rune(a))
	}
	return json.Marshal(a.String())
}

func (a *Align) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseAlign(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ── Geometry ──

// LineFormat is one text box for one line-count variant, in setup pixels.
type LineFormat struct {
	Y          int    `json:"Y"`
	X          int    `json:"X"`
	Width      int    `json:"Width"`
	Align      Align  `json:"Align"`
	MinFont    int    `json:"MinFont"`
	MaxFont    int    `json:"MaxFont"`
	Attributes string `json:"Attributes"` // opaque, delimiter free
	Css        string `json:"Css"`        // opaque, delimiter free
}

// Formats maps a line count n to exactly n line formats. On the wire the keys
// are "Lines1".."LinesN".
type Formats map[int][]LineFormat

// FormatKey returns the persisted key for an n-line variant.
func FormatKey(n int) string { return "Lines" + strconv.Itoa(n) }

// ParseFormatKey is the inverse of FormatKey.
func ParseFormatKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "Lines")
	if !ok || rest == "" || rest[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Counts returns the line counts present, ascending.
func (f Formats) Counts() []int {
	counts := make([]int, 0, len(f))
	for n := range f {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts
}

// Clone deep-copies every variant.
func (f Formats) Clone() Formats {
	if f == nil {
		return nil
	}
	out := make(Formats, len(f))
	for n, lines := range f {
		out[n] = append([]LineFormat(nil), lines...)
	}
	return out
}

func (f Formats) MarshalJSON() ([]byte, error) {
	m := make(map[string][]LineFormat, len(f))
	for n, lines := range f {
		m[FormatKey(n)] = lines
	}
	return json.Marshal(m)
}

func (f *Formats) UnmarshalJSON(b []byte) error {
	var m map[string][]LineFormat
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := make(Formats, len(m))
	for key, lines := range m {
		n, ok := ParseFormatKey(key)
		if !ok {
			return fmt.Errorf("invalid format key %q", key)
		}
		out[n] = lines
	}
	*f = out
	return nil
}

// ── Layout ──

// Layout is a named arrangement of text boxes over a product image. All
// geometry is in the setup image's pixel space.
type Layout struct {
	SetupImage   int `json:"SetupImage"`   // image asset id, 0 = unset
	OverlayImage int `json:"OverlayImage"` // image asset id, 0 = unset
	SetupWidth   int `json:"SetupWidth"`
	SetupHeight  int `json:"SetupHeight"`
	MaxLines     int `json:"MaxLines"`
	CurrentLines int `json:"CurrentLines"` // variant being edited

	MultilineReformat  string `json:"MultilineReformat"`
	NumberOfLines      string `json:"NumberOfLines"`
	SinglelineReformat string `json:"SinglelineReformat"`

	InkColor           Color `json:"InkColor"`
	ActiveMouseColor   Color `json:"ActiveMouseColor"`
	InactiveMouseColor Color `json:"InactiveMouseColor"`

	Formats Formats `json:"Formats"`
}

// Clone returns a deep copy.
func (l *Layout) Clone() *Layout {
	c := *l
	c.Formats = l.Formats.Clone()
	return &c
}

// Lines returns the n-line variant, or nil if absent.
func (l *Layout) Lines(n int) []LineFormat {
	return l.Formats[n]
}

// MaxFontLimit is the largest font any line may use: half the setup height.
func (l *Layout) MaxFontLimit() int {
	return l.SetupHeight / 2
}

// MessageKind names one of the three overflow messages.
type MessageKind string

const (
	MessageMultiline    MessageKind = "MultilineReformat"
	MessageTooManyLines MessageKind = "NumberOfLines"
	MessageSingleline   MessageKind = "SinglelineReformat"
)

// Message returns the stored overflow text, falling back to the default
// wording when the merchant left it empty.
func (l *Layout) Message(kind MessageKind) string {
	var s string
	switch kind {
	case MessageMultiline:
		s = l.MultilineReformat
	case MessageTooManyLines:
		s = l.NumberOfLines
	case MessageSingleline:
		s = l.SinglelineReformat
	}
	if s == "" {
		return DefaultMessage(kind)
	}
	return s
}

// SetMessage stores text for kind. Unknown kinds are an error.
func (l *Layout) SetMessage(kind MessageKind, text string) error {
	switch kind {
	case MessageMultiline:
		l.MultilineReformat = text
	case MessageTooManyLines:
		l.NumberOfLines = text
	case MessageSingleline:
		l.SinglelineReformat = text
	default:
		return fmt.Errorf("unknown message %q", kind)
	}
	return nil
}

// ColorKind names one of the three layout colours.
type ColorKind string

const (
	ColorInk      ColorKind = "InkColor"
	ColorActive   ColorKind = "ActiveMouseColor"
	ColorInactive ColorKind = "InactiveMouseColor"
)

// Color returns the colour for kind.
func (l *Layout) Color(kind ColorKind) Color {
	switch kind {
	case ColorActive:
		return l.ActiveMouseColor
	case ColorInactive:
		return l.InactiveMouseColor
	default:
		return l.InkColor
	}
}

// SetColor stores c for kind. Unknown kinds are an error.
func (l *Layout) SetColor(kind ColorKind, c Color) error {
	if c > MaxColor {
		return fmt.Errorf("color %#x out of range", uint32(c))
	}
	switch kind {
	case ColorInk:
		l.InkColor = c
	case ColorActive:
		l.ActiveMouseColor = c
	case ColorInactive:
		l.InactiveMouseColor = c
	default:
		return fmt.Errorf("unknown color %q", kind)
	}
	return nil
}
