// opentype.go — Text width and ink bounds from OpenType faces.
// Built-in families come from the embedded Go fonts; any TTF/OTF file can be
// added under its own family name. Unknown families fall back to Go.
package measure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/logging"
)

// DefaultFamily is used for unknown or empty family names.
const DefaultFamily = "Go"

// Builtin maps the embedded family names to their TTF data.
var Builtin = map[string][]byte{
	"Go":        goregular.TTF,
	"Go Bold":   gobold.TTF,
	"Go Italic": goitalic.TTF,
	"Go Mono":   gomono.TTF,
}

type faceKey struct {
	family string
	size   int
}

// OpenType measures with parsed OpenType fonts at 72 DPI, so one point is
// one pixel. Faces are cached per (family, size). It is safe for concurrent
// use: faces are not, so every measurement holds the lock.
type OpenType struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	data  map[string][]byte
	faces map[faceKey]font.Face
}

// NewOpenType returns a measurer with the built-in Go families loaded.
func NewOpenType() (*OpenType, error) {
	o := &OpenType{
		fonts: make(map[string]*opentype.Font),
		data:  make(map[string][]byte),
		faces: make(map[faceKey]font.Face),
	}
	for name, ttf := range Builtin {
		if err := o.Add(name, ttf); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Add registers font data under family, replacing any previous font of that
// name.
func (o *OpenType) Add(family string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %q: %w", family, err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fonts[family] = f
	o.data[family] = data
	for k, face := range o.faces {
		if k.family == family {
			face.Close()
			delete(o.faces, k)
		}
	}
	return nil
}

// LoadFile adds a TTF/OTF file. The family name is the file name without
// its extension.
func (o *OpenType) LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read font: %w", err)
	}
	family := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := o.Add(family, data); err != nil {
		return "", err
	}
	logging.Logger().Debug("font loaded", "family", family, "path", path)
	return family, nil
}

// Families returns the registered family names.
func (o *OpenType) Families() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.fonts))
	for name := range o.fonts {
		names = append(names, name)
	}
	return names
}

// Data returns the raw font bytes for family, falling back to the default
// family.
func (o *OpenType) Data(family string) []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	if d, ok := o.data[family]; ok {
		return d
	}
	return o.data[DefaultFamily]
}

// Measure returns the advance width of text in pixels. A face that cannot
// be built measures as zero width.
func (o *OpenType) Measure(text, family string, size int) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	face, err := o.face(family, size)
	if err != nil {
		logging.Logger().Warn("measure: no face", "family", family, "size", size, "error", err)
		return 0
	}
	return fixedToFloat(font.MeasureString(face, text))
}

// Ink returns the ink extent of text above and below the baseline.
func (o *OpenType) Ink(text, family string, size int) (fit.Ink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	face, err := o.face(family, size)
	if err != nil {
		return fit.Ink{}, err
	}
	bounds, _ := font.BoundString(face, text)
	return fit.Ink{
		Ascent:  -fixedToFloat(bounds.Min.Y),
		Descent: fixedToFloat(bounds.Max.Y),
	}, nil
}

// Face returns a new face for drawing. The caller owns it and must close it.
func (o *OpenType) Face(family string, size float64) (font.Face, error) {
	o.mu.Lock()
	f := o.lookup(family)
	o.mu.Unlock()
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Close releases every cached face.
func (o *OpenType) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, face := range o.faces {
		face.Close()
		delete(o.faces, k)
	}
	return nil
}

// face must be called with o.mu held.
func (o *OpenType) face(family string, size int) (font.Face, error) {
	if _, ok := o.fonts[family]; !ok {
		family = DefaultFamily
	}
	key := faceKey{family, size}
	if face, ok := o.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(o.fonts[family], &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s@%d: %w", family, size, err)
	}
	o.faces[key] = face
	return face, nil
}

func (o *OpenType) lookup(family string) *opentype.Font {
	if f, ok := o.fonts[family]; ok {
		return f
	}
	return o.fonts[DefaultFamily]
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
