// renderer.go — Composites a product preview: image, overlay, fitted text and guide frames.
// Draws in layers: background -> overlay -> text -> frames.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/logging"
)

// Faces supplies drawing faces by family and pixel size. The caller closes
// each face it receives.
type Faces interface {
	Face(family string, size float64) (font.Face, error)
}

// Source loads an image asset scaled to w×h.
type Source interface {
	Open(id, w, h int) (image.Image, error)
}

// Frame is a guide rectangle drawn around a text box while editing.
type Frame struct {
	Rect   image.Rectangle
	Active bool
}

// Scene is what to draw over a layout's images. Coordinates are in the
// Width×Height output space.
type Scene struct {
	Width, Height int
	Placements    []fit.Placement
	Frames        []Frame
}

// Renderer draws previews.
type Renderer struct {
	faces  Faces
	source Source
}

// NewRenderer draws text with faces. source may be nil, in which case
// previews have a white background and no overlay.
func NewRenderer(faces Faces, source Source) *Renderer {
	return &Renderer{faces: faces, source: source}
}

// Render composites scene over l's images. Missing images are logged and
// skipped; only text drawing errors are returned.
func (r *Renderer) Render(l *layout.Layout, scene Scene) (*image.RGBA, error) {
	w, h := scene.Width, scene.Height
	if w <= 0 || h <= 0 {
		w, h = l.SetupWidth, l.SetupHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	r.drawBackground(img, l.SetupImage)
	if l.OverlayImage != 0 {
		if ov := r.open(l.OverlayImage, w, h); ov != nil {
			draw.Draw(img, img.Bounds(), ov, ov.Bounds().Min, draw.Over)
		}
	}

	ink := l.InkColor.RGBA()
	for _, p := range scene.Placements {
		if err := r.drawPlacement(img, p, ink); err != nil {
			return nil, err
		}
	}

	active, inactive := l.ActiveMouseColor.RGBA(), l.InactiveMouseColor.RGBA()
	for _, f := range scene.Frames {
		c := inactive
		if f.Active {
			c = active
		}
		drawFrame(img, f.Rect, c)
	}
	return img, nil
}

// drawBackground draws the setup image, or white when there is none.
func (r *Renderer) drawBackground(img *image.RGBA, id int) {
	b := img.Bounds()
	if id != 0 {
		if bg := r.open(id, b.Dx(), b.Dy()); bg != nil {
			draw.Draw(img, b, bg, bg.Bounds().Min, draw.Src)
			return
		}
	}
	draw.Draw(img, b, &image.Uniform{color.White}, image.Point{}, draw.Src)
}

func (r *Renderer) open(id, w, h int) image.Image {
	if r.source == nil {
		return nil
	}
	src, err := r.source.Open(id, w, h)
	if err != nil {
		logging.Logger().Warn("preview: image unavailable", "id", id, "error", err)
		return nil
	}
	return src
}

// drawPlacement draws one fitted line with its baseline at p.Y. X is the
// anchor point given by the line's alignment.
func (r *Renderer) drawPlacement(img *image.RGBA, p fit.Placement, ink color.RGBA) error {
	if p.Text == "" || p.Font <= 0 {
		return nil
	}
	face, err := r.faces.Face(p.Family, float64(p.Font))
	if err != nil {
		return fmt.Errorf("face %s@%d: %w", p.Family, p.Font, err)
	}
	defer face.Close()

	advance := float64(font.MeasureString(face, p.Text)) / 64
	x := p.X - p.Align.Offset(advance)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(p.Y)},
	}
	d.DrawString(p.Text)
	return nil
}

// drawFrame outlines rect one pixel wide.
func drawFrame(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetRGBA(x, rect.Min.Y, c)
		img.SetRGBA(x, rect.Max.Y-1, c)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetRGBA(rect.Min.X, y, c)
		img.SetRGBA(rect.Max.X-1, y, c)
	}
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// SavePNG saves an image to a PNG file.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return EncodePNG(f, img)
}
