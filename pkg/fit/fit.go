// Package fit sizes text into fixed-width boxes. It shrinks, grows and as a
// last resort truncates text so the rendered width never exceeds the box, and
// balances several boxes of one message to a common size.
//
// Text width comes from an injected Measurer. The engine never fails: any
// text and any box with MinFont ≤ MaxFont converge to a size in that range.
package fit

import (
	"github.com/xob0t/textslot/pkg/layout"
)

// Measurer returns the rendered width in pixels of text set in family at
// size pixels. It must be deterministic for a given input.
type Measurer interface {
	Measure(text, family string, size int) float64
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(text, family string, size int) float64

func (f MeasureFunc) Measure(text, family string, size int) float64 {
	return f(text, family, size)
}

// Flags are the user-visible warnings raised while fitting.
type Flags uint8

const (
	// TooLong means text was truncated at the minimum font size.
	TooLong Flags = 1 << iota
	// TooManyLines means more lines were typed than the layout supports.
	TooManyLines
)

func (f Flags) Has(x Flags) bool { return f&x != 0 }

func (f Flags) String() string {
	switch f {
	case 0:
		return "none"
	case TooLong:
		return "too long"
	case TooManyLines:
		return "too many lines"
	case TooLong | TooManyLines:
		return "too long, too many lines"
	default:
		return "unknown"
	}
}

// Box is one text slot with its current rendered state. Geometry is in the
// pixel space of the image being rendered.
type Box struct {
	Y, X, Width      int
	MinFont, MaxFont int
	Align            layout.Align
	Family           string

	Text string // rendered text, possibly truncated
	Font int    // rendered size, 0 before the first fit

	input string // last text passed to Fit, before truncation
}

// NewBox seeds a box from a line format, at its largest size.
func NewBox(lf layout.LineFormat, family string) *Box {
	return &Box{
		Y:       lf.Y,
		X:       lf.X,
		Width:   lf.Width,
		MinFont: lf.MinFont,
		MaxFont: lf.MaxFont,
		Align:   lf.Align,
		Family:  family,
		Font:    lf.MaxFont,
	}
}

// Truncated reports whether the rendered text is shorter than the input.
func (b *Box) Truncated() bool { return b.Text != b.input }

// Engine runs the fitting algorithm.
type Engine struct {
	measure Measurer
	metrics *Metrics
}

// New returns an engine measuring with m. A nil metrics uses the fallback
// baseline ratios for every family.
func New(m Measurer, metrics *Metrics) *Engine {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Engine{measure: m, metrics: metrics}
}

// Metrics returns the engine's font metrics cache.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Fit sets b's text and size for text. The starting size is the box's
// previous size clamped to its bounds. Unless force is set, text identical
// to the previous input only tries to grow.
func (e *Engine) Fit(b *Box, text string, force bool) Flags {
	if text == "" {
		b.Text, b.input = "", ""
		b.Font = b.MaxFont
		return 0
	}

	font := b.Font
	if font <= 0 {
		font = b.MaxFont
	}
	font = clamp(font, b.MinFont, b.MaxFont)
	width := float64(b.Width)

	if !force && text == b.input && b.Font > 0 {
		b.Font = e.grow(b.Text, b.Family, font, b.MaxFont, width)
		if b.Truncated() {
			return TooLong
		}
		return 0
	}
	b.input = text

	w := e.measure.Measure(text, b.Family, font)
	if w > width && font > b.MinFont {
		for w > width && font > b.MinFont {
			font--
			w = e.measure.Measure(text, b.Family, font)
		}
	} else if w < width && font < b.MaxFont {
		b.Text, b.Font = text, e.grow(text, b.Family, font, b.MaxFont, width)
		return 0
	}

	var flags Flags
	if w > width {
		text, _ = e.truncate(text, b.Family, font, width)
		flags |= TooLong
	}
	b.Text, b.Font = text, font
	return flags
}

// grow steps the size up while the text stays narrower than width, backing
// off one step if the last step overshot.
func (e *Engine) grow(text, family string, font, maxFont int, width float64) int {
	if text == "" {
		return maxFont
	}
	w := e.measure.Measure(text, family, font)
	if w > width {
		return font
	}
	for w < width && font < maxFont {
		font++
		w = e.measure.Measure(text, family, font)
	}
	if w > width {
		font--
	}
	return font
}

// truncate drops trailing runes until text fits or is empty.
func (e *Engine) truncate(text, family string, font int, width float64) (string, float64) {
	r := []rune(text)
	w := e.measure.Measure(text, family, font)
	for len(r) > 0 && w > width {
		r = r[:len(r)-1]
		w = e.measure.Measure(string(r), family, font)
	}
	return string(r), w
}

// Balance sets every box to the smallest size among them, clamped to each
// box's own bounds. Empty boxes take part at their maximum size.
func (e *Engine) Balance(boxes []*Box) {
	if len(boxes) < 2 {
		return
	}
	common := boxes[0].Font
	for _, b := range boxes[1:] {
		common = min(common, b.Font)
	}
	for _, b := range boxes {
		b.Font = clamp(common, b.MinFont, b.MaxFont)
	}
}

// Placement is a box ready to draw: Y has the baseline correction applied.
type Placement struct {
	X, Y   float64
	Width  int
	Font   int
	Align  layout.Align
	Family string
	Text   string
	Height float64 // ink height at Font
}

// Place converts b to drawing coordinates. Y is moved down by the family's
// middle offset so the box's Y is the text's vertical centre.
func (e *Engine) Place(b *Box) Placement {
	r := e.metrics.Ratios(b.Family)
	return Placement{
		X:      float64(b.X),
		Y:      float64(b.Y) + float64(b.Font)*r.YOffset,
		Width:  b.Width,
		Font:   b.Font,
		Align:  b.Align,
		Family: b.Family,
		Text:   b.Text,
		Height: float64(b.Font) * r.Size,
	}
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
