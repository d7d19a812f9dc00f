// scale.go — Project setup-space geometry onto a displayed image size.
package layout

// Projection maps setup pixels to display pixels. Horizontal fields scale by
// ScaleX; vertical fields and font sizes scale by ScaleY, so boxes may become
// non-square.
type Projection struct {
	ScaleX, ScaleY float64
	Width, Height  int // display size
	SetupWidth     int
	SetupHeight    int
}

// NewProjection builds the projection of l onto a width×height display.
// Non-positive display sizes fall back to the setup size.
func NewProjection(l *Layout, width, height int) Projection {
	if width <= 0 {
		width = l.SetupWidth
	}
	if height <= 0 {
		height = l.SetupHeight
	}
	return Projection{
		ScaleX:      float64(width) / float64(l.SetupWidth),
		ScaleY:      float64(height) / float64(l.SetupHeight),
		Width:       width,
		Height:      height,
		SetupWidth:  l.SetupWidth,
		SetupHeight: l.SetupHeight,
	}
}

// X scales a horizontal value, flooring. Integer arithmetic keeps the result
// exact where the float product would land a hair under a whole number.
func (p Projection) X(v int) int { return floorDiv(v*p.Width, p.SetupWidth) }

// Y scales a vertical value or font size, flooring.
func (p Projection) Y(v int) int { return floorDiv(v*p.Height, p.SetupHeight) }

// Line scales every geometric field of lf independently.
func (p Projection) Line(lf LineFormat) LineFormat {
	out := lf
	out.X = p.X(lf.X)
	out.Width = p.X(lf.Width)
	out.Y = p.Y(lf.Y)
	out.MinFont = p.Y(lf.MinFont)
	out.MaxFont = p.Y(lf.MaxFont)
	return out
}

// Projected is a layout's format table scaled for one render pass.
type Projected struct {
	Projection
	Formats Formats
}

// Project scales every variant of l onto a width×height display.
func Project(l *Layout, width, height int) *Projected {
	p := NewProjection(l, width, height)
	out := &Projected{Projection: p, Formats: make(Formats, len(l.Formats))}
	for n, lines := range l.Formats {
		scaled := make([]LineFormat, len(lines))
		for i, lf := range lines {
			scaled[i] = p.Line(lf)
		}
		out.Formats[n] = scaled
	}
	return out
}

// Compact returns the n-line variant in compact form, or "" if absent.
func (p *Projected) Compact(n int) string {
	return EncodeCompact(p.Formats[n])
}

// Variants returns wire variants in ascending line count. If only is
// non-empty, just those counts are emitted, which lets a product restrict
// shoppers to a subset of the layout's variants.
func (p *Projected) Variants(only ...int) []Variant {
	var vs []Variant
	for _, n := range p.Formats.Counts() {
		if len(only) > 0 && !contains(only, n) {
			continue
		}
		vs = append(vs, Variant{Lines: n, Format: p.Compact(n)})
	}
	return vs
}

func contains(ns []int, n int) bool {
	for _, v := range ns {
		if v == n {
			return true
		}
	}
	return false
}

func floorDiv(a, b int) int {
	if b == 0 {
		return a
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
