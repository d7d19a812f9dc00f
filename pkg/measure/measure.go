// Package measure provides the text width backends used by package fit.
package measure

import (
	"fmt"
	"unicode/utf8"

	"github.com/xob0t/textslot/pkg/fit"
)

// Backend names accepted by New.
const (
	BackendOpenType = "opentype"
	BackendCanvas   = "canvas"
	BackendShaper   = "shaper"
)

// Set is a chosen measurer plus the OpenType fonts used for calibration and
// drawing. Every backend is loaded with the same extra font files.
type Set struct {
	Measurer fit.Measurer
	Fonts    *OpenType
}

// Calibrator returns the ink calibrator matching the measurer: the canvas
// backend calibrates from its own face metrics, the others from OpenType
// ink bounds.
func (s *Set) Calibrator() fit.Calibrator {
	if c, ok := s.Measurer.(*Canvas); ok {
		return c
	}
	return s.Fonts
}

// New builds the named backend and loads fontFiles into it. An empty
// backend name means opentype.
func New(backend string, fontFiles ...string) (*Set, error) {
	ot, err := NewOpenType()
	if err != nil {
		return nil, err
	}
	extra := make(map[string][]byte, len(fontFiles))
	for _, path := range fontFiles {
		family, err := ot.LoadFile(path)
		if err != nil {
			return nil, err
		}
		extra[family] = ot.Data(family)
	}

	set := &Set{Fonts: ot}
	switch backend {
	case "", BackendOpenType:
		set.Measurer = ot
	case BackendCanvas:
		c, err := NewCanvas()
		if err != nil {
			return nil, err
		}
		for family, data := range extra {
			if err := c.Add(family, data); err != nil {
				return nil, err
			}
		}
		set.Measurer = c
	case BackendShaper:
		s, err := NewShaper()
		if err != nil {
			return nil, err
		}
		for family, data := range extra {
			if err := s.Add(family, data); err != nil {
				return nil, err
			}
		}
		set.Measurer = s
	default:
		return nil, fmt.Errorf("unknown measurer %q", backend)
	}
	return set, nil
}

// Fixed returns a measurer where every rune is advance×size pixels wide.
// It stands in for real fonts where layout must not depend on font data.
func Fixed(advance float64) fit.MeasureFunc {
	return func(text, _ string, size int) float64 {
		return float64(utf8.RuneCountInString(text)) * advance * float64(size)
	}
}
