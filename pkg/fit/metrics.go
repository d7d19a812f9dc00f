// metrics.go — Per-family baseline ratios, calibrated once and cached.
package fit

import (
	"sync"

	"github.com/xob0t/textslot/pkg/logging"
)

// CalibrationText has tall capitals, ascenders and descenders, so its ink
// bounds approximate the family's full vertical extent.
const CalibrationText = "IXhljgy"

// calibrationSize is the pixel size ratios are measured at.
const calibrationSize = 100

// Ink is the measured vertical extent of a string. Ascent is above the
// baseline, Descent below; both are positive.
type Ink struct {
	Ascent, Descent float64
}

// Height is the full ink height.
func (i Ink) Height() float64 { return i.Ascent + i.Descent }

// Calibrator measures the ink extent of text in family at size pixels.
type Calibrator interface {
	Ink(text, family string, size int) (Ink, error)
}

// Ratios scale a font size into baseline geometry.
type Ratios struct {
	YOffset float64 // baseline shift per pixel of font size
	Size    float64 // ink height per pixel of font size
}

// FallbackRatios are used when a family cannot be calibrated.
var FallbackRatios = Ratios{YOffset: 0.25, Size: 1}

// RatiosFromInk derives ratios from ink measured at size.
func RatiosFromInk(ink Ink, size int) Ratios {
	s := float64(size)
	return Ratios{
		YOffset: (ink.Ascent - ink.Descent) / (2 * s),
		Size:    ink.Height() / s,
	}
}

// Metrics caches Ratios per font family.
type Metrics struct {
	cal Calibrator

	mu    sync.Mutex
	cache map[string]Ratios
}

// NewMetrics returns a cache backed by cal. A nil cal yields FallbackRatios
// for every family.
func NewMetrics(cal Calibrator) *Metrics {
	return &Metrics{cal: cal, cache: make(map[string]Ratios)}
}

// Ratios returns the ratios for family, calibrating on first use.
func (m *Metrics) Ratios(family string) Ratios {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.cache[family]; ok {
		return r
	}
	r := m.calibrate(family)
	m.cache[family] = r
	return r
}

// MiddleYOffset is how far to move a baseline down so text at fontSize is
// vertically centred on the original Y.
func (m *Metrics) MiddleYOffset(family string, fontSize int) float64 {
	return float64(fontSize) * m.Ratios(family).YOffset
}

func (m *Metrics) calibrate(family string) Ratios {
	if m.cal == nil {
		return FallbackRatios
	}
	ink, err := m.cal.Ink(CalibrationText, family, calibrationSize)
	if err != nil || ink.Height() <= 0 {
		logging.Logger().Warn("font calibration failed, using fallback ratios", "family", family, "error", err)
		return FallbackRatios
	}
	r := RatiosFromInk(ink, calibrationSize)
	logging.Logger().Debug("font calibrated", "family", family, "yOffset", r.YOffset, "size", r.Size)
	return r
}
