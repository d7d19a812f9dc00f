// canvas.go — Text width through tdewolff/canvas font families.
package measure

import (
	"fmt"
	"math"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/xob0t/textslot/pkg/fit"
)

// pxPerMM converts canvas millimetres to pixels at 72 DPI, where one point
// is one pixel.
const pxPerMM = 72 / 25.4

// Canvas measures with canvas font families. Sizes are passed to canvas as
// points and widths come back in millimetres.
type Canvas struct {
	mu       sync.Mutex
	families map[string]*canvas.FontFamily
}

// NewCanvas returns a measurer with the built-in Go families loaded.
func NewCanvas() (*Canvas, error) {
	c := &Canvas{families: make(map[string]*canvas.FontFamily)}
	for name, ttf := range Builtin {
		if err := c.Add(name, ttf); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers font data under family.
func (c *Canvas) Add(family string, data []byte) error {
	f := canvas.NewFontFamily(family)
	if err := f.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return fmt.Errorf("load font %q: %w", family, err)
	}
	c.mu.Lock()
	c.families[family] = f
	c.mu.Unlock()
	return nil
}

func (c *Canvas) face(family string, size int) *canvas.FontFace {
	c.mu.Lock()
	f, ok := c.families[family]
	if !ok {
		f = c.families[DefaultFamily]
	}
	c.mu.Unlock()
	return f.Face(float64(size), canvas.Black, canvas.FontRegular, canvas.FontNormal)
}

// Measure returns the width of text in pixels.
func (c *Canvas) Measure(text, family string, size int) float64 {
	return c.face(family, size).TextWidth(text) * pxPerMM
}

// Ink approximates the ink extent by the face's ascent and descent. text is
// not used: canvas reports per-face metrics only.
func (c *Canvas) Ink(_ string, family string, size int) (fit.Ink, error) {
	m := c.face(family, size).Metrics()
	ink := fit.Ink{
		Ascent:  math.Abs(m.Ascent) * pxPerMM,
		Descent: math.Abs(m.Descent) * pxPerMM,
	}
	if ink.Height() <= 0 {
		return fit.Ink{}, fmt.Errorf("family %q has no vertical metrics", family)
	}
	return ink, nil
}
