// shaper.go — Shaped text width via go-text/typesetting (HarfBuzz).
// Shaping applies kerning and ligatures, so widths match browsers more
// closely than summed glyph advances.
package measure

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// Shaper measures shaped runs. Parsed fonts are shared; faces and HarfBuzz
// shapers are per call, as neither is safe for concurrent use.
type Shaper struct {
	pool sync.Pool

	mu    sync.RWMutex
	fonts map[string]*font.Font
}

// NewShaper returns a shaper with the built-in Go families loaded.
func NewShaper() (*Shaper, error) {
	s := &Shaper{
		pool:  sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }},
		fonts: make(map[string]*font.Font),
	}
	for name, ttf := range Builtin {
		if err := s.Add(name, ttf); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers font data under family.
func (s *Shaper) Add(family string, data []byte) error {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse font %q: %w", family, err)
	}
	s.mu.Lock()
	s.fonts[family] = face.Font
	s.mu.Unlock()
	return nil
}

// Measure returns the shaped advance of text in pixels.
func (s *Shaper) Measure(text, family string, size int) float64 {
	if text == "" {
		return 0
	}
	s.mu.RLock()
	f, ok := s.fonts[family]
	if !ok {
		f = s.fonts[DefaultFamily]
	}
	s.mu.RUnlock()

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(f),
		Size:      fixed.I(size),
		Script:    scriptOf(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	s.pool.Put(hb)
	return fixedToFloat(out.Advance)
}

// scriptOf returns the script of the first non-space rune.
func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
