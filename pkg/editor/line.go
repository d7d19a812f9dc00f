// line.go — One line of the variant being edited, with range limits.
package editor

import (
	"math"

	"github.com/xob0t/textslot/pkg/layout"
)

// line holds a LineFormat as floats so drags move smoothly. Values are
// floored whenever no drag is in progress.
type line struct {
	Y, X, Width      float64
	MinFont, MaxFont float64
	Align            layout.Align
}

func newLine(lf layout.LineFormat) *line {
	return &line{
		Y:       float64(lf.Y),
		X:       float64(lf.X),
		Width:   float64(lf.Width),
		MinFont: float64(lf.MinFont),
		MaxFont: float64(lf.MaxFont),
		Align:   lf.Align,
	}
}

// format floors the line into lf, keeping lf's pass-through fields.
func (ln *line) format(lf layout.LineFormat) layout.LineFormat {
	lf.Y = int(math.Floor(ln.Y))
	lf.X = int(math.Floor(ln.X))
	lf.Width = int(math.Floor(ln.Width))
	lf.MinFont = int(math.Floor(ln.MinFont))
	lf.MaxFont = int(math.Floor(ln.MaxFont))
	lf.Align = ln.Align
	return lf
}

// limits are the input ranges for the current setup image.
type limits struct {
	width, height float64
}

func (lm limits) fontMax() float64 { return math.Floor(lm.height / 2) }

func limitRange(v, lo, hi float64) float64 {
	return math.Max(math.Min(v, hi), lo)
}

// snap keeps v while dragging and floors it otherwise.
func snap(v float64, resizing bool) float64 {
	if resizing {
		return v
	}
	return math.Floor(v)
}

func (ln *line) setY(v float64, lm limits, resizing bool) {
	ln.Y = snap(limitRange(v, 0, lm.height), resizing)
}

func (ln *line) setX(v float64, lm limits, resizing bool) {
	ln.X = snap(limitRange(v, 0, lm.width), resizing)
}

func (ln *line) setWidth(v float64, lm limits, resizing bool) {
	ln.Width = snap(limitRange(v, 0, lm.width), resizing)
}

// setMinFont cannot exceed MaxFont, except mid-drag.
func (ln *line) setMinFont(v float64, lm limits, resizing bool) {
	v = limitRange(v, layout.MinFontSize, lm.fontMax())
	if !resizing {
		v = math.Min(v, ln.MaxFont)
	}
	ln.MinFont = snap(v, resizing)
}

// setMaxFont cannot drop below MinFont, except mid-drag.
func (ln *line) setMaxFont(v float64, lm limits, resizing bool) {
	v = limitRange(v, layout.MinFontSize, lm.fontMax())
	if !resizing {
		v = math.Max(v, ln.MinFont)
	}
	ln.MaxFont = snap(v, resizing)
}

// setAlign keeps the text in place by moving X between anchor points.
func (ln *line) setAlign(a layout.Align, lm limits, resizing bool) {
	if a == ln.Align {
		return
	}
	dx := a.Offset(ln.Width) - ln.Align.Offset(ln.Width)
	ln.setX(ln.X+dx, lm, resizing)
	ln.Align = a
}

func (ln *line) font(sizing Field) float64 {
	if sizing == FieldMinFont {
		return ln.MinFont
	}
	return ln.MaxFont
}

func (ln *line) setFont(sizing Field, v float64, lm limits, resizing bool) {
	if sizing == FieldMinFont {
		ln.setMinFont(v, lm, resizing)
	} else {
		ln.setMaxFont(v, lm, resizing)
	}
}

// value returns a field for keep-same comparisons. Align compares by its
// byte value, which is never zero for a valid alignment.
func (ln *line) value(f Field) float64 {
	switch f {
	case FieldY:
		return ln.Y
	case FieldX:
		return ln.X
	case FieldAlign:
		return float64(ln.Align)
	case FieldWidth:
		return ln.Width
	case FieldMinFont:
		return ln.MinFont
	case FieldMaxFont:
		return ln.MaxFont
	default:
		return 0
	}
}

func (ln *line) set(f Field, v float64, lm limits, resizing bool) {
	switch f {
	case FieldY:
		ln.setY(v, lm, resizing)
	case FieldX:
		ln.setX(v, lm, resizing)
	case FieldAlign:
		ln.setAlign(layout.Align(byte(v)), lm, resizing)
	case FieldWidth:
		ln.setWidth(v, lm, resizing)
	case FieldMinFont:
		ln.setMinFont(v, lm, resizing)
	case FieldMaxFont:
		ln.setMaxFont(v, lm, resizing)
	}
}

// clampAll re-applies the limits after the setup image changes size.
func (ln *line) clampAll(lm limits) {
	ln.setX(ln.X, lm, false)
	ln.setY(ln.Y, lm, false)
	ln.setWidth(ln.Width, lm, false)
	ln.setMinFont(ln.MinFont, lm, false)
	ln.setMaxFont(ln.MaxFont, lm, false)
}
