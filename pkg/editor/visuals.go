// visuals.go — Guide frames and sample text for the line being edited.
package editor

import (
	"math"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/layout"
)

// Guide is the on-screen frame of one line, in setup pixels. Y is the top
// of the frame.
type Guide struct {
	Line   int          `json:"line"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Align  layout.Align `json:"align"`
	Active bool         `json:"active"`
}

// Guides returns the frame of every line in the current variant, sized for
// the sizing font. The last edited line is active.
func (s *Session) Guides(m *fit.Metrics, family string) []Guide {
	r := m.Ratios(family)
	out := make([]Guide, len(s.lines))
	for i, ln := range s.lines {
		h := ln.font(s.sizing) * r.Size
		out[i] = Guide{
			Line:   i,
			X:      ln.X - ln.Align.Offset(ln.Width),
			Y:      ln.Y - h/2,
			Width:  ln.Width,
			Height: h,
			Align:  ln.Align,
			Active: i == s.lastLine,
		}
	}
	return out
}

// Rect returns the guide's corners as integers.
func (g Guide) Rect() (x0, y0, x1, y1 int) {
	return int(math.Floor(g.X)), int(math.Floor(g.Y)),
		int(math.Ceil(g.X + g.Width)), int(math.Ceil(g.Y + g.Height))
}

// maxSample bounds sample strings for measurers that report zero widths.
const maxSample = 512

// SampleText fills width at size with a preview string: "X" followed by
// alternating "y" and "X" while they fit, then "i" as fine padding.
func SampleText(m fit.Measurer, family string, size int, width float64) string {
	s := "X"
	for i := 0; len(s) < maxSample; i++ {
		c := "y"
		if i%2 == 1 {
			c = "X"
		}
		if m.Measure(s+c, family, size) > width {
			break
		}
		s += c
	}
	for len(s) < maxSample && m.Measure(s+"i", family, size) <= width {
		s += "i"
	}
	return s
}

// Samples fits a sample string into every line at its sizing font, ready
// to draw the way a shopper's text would be.
func (s *Session) Samples(e *fit.Engine, m fit.Measurer, family string) []fit.Placement {
	out := make([]fit.Placement, len(s.lines))
	for i, ln := range s.lines {
		lf := ln.format(layout.LineFormat{})
		b := fit.NewBox(lf, family)
		size := int(math.Floor(ln.font(s.sizing)))
		b.Font = size
		b.Text = SampleText(m, family, size, ln.Width)
		out[i] = e.Place(b)
	}
	return out
}
