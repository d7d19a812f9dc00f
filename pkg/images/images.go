// Package images resolves image asset ids to URLs and pixel dimensions, and
// loads them scaled for rendering.
package images

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/xob0t/textslot/pkg/logging"
)

var (
	// ErrNotFound is returned when no file exists for an asset id.
	ErrNotFound = errors.New("images: asset not found")

	// ErrUnknownSize is returned for a size name that is not in Sizes.
	ErrUnknownSize = errors.New("images: unknown size")
)

// Named sizes. Each bounds the longer side; Full is the native size.
const (
	SizeFull      = "full"
	SizeSingle    = "shop_single"
	SizeCatalog   = "shop_catalog"
	SizeThumbnail = "shop_thumbnail"
)

// Sizes maps size names to the square bound they fit into.
var Sizes = map[string]int{
	SizeSingle:    600,
	SizeCatalog:   300,
	SizeThumbnail: 180,
}

// Image is a resolved asset.
type Image struct {
	ID     int    `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Resolver maps an asset id and size name to an image.
type Resolver interface {
	Resolve(id int, size string) (Image, error)
}

// Dimensions returns the resolved size of id, or defW×defH when resolving
// fails or reports a zero dimension.
func Dimensions(r Resolver, id int, size string, defW, defH int) (int, int) {
	if r == nil || id == 0 {
		return defW, defH
	}
	img, err := r.Resolve(id, size)
	if err != nil || img.Width <= 0 || img.Height <= 0 {
		logging.Logger().Warn("image dimensions unavailable, using defaults", "id", id, "size", size, "error", err)
		return defW, defH
	}
	return img.Width, img.Height
}

// Extensions are tried in order when looking up an asset file.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Dir serves assets stored as <Root>/<id>.<ext>.
type Dir struct {
	Root    string
	BaseURL string // URL prefix, e.g. "/images"
}

// Path returns the file for id.
func (d Dir) Path(id int) (string, error) {
	for _, ext := range Extensions {
		p := filepath.Join(d.Root, strconv.Itoa(id)+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Resolve reads the image header for its native size and fits it into the
// named size.
func (d Dir) Resolve(id int, size string) (Image, error) {
	p, err := d.Path(id)
	if err != nil {
		return Image{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		return Image{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Image{}, fmt.Errorf("decode %s: %w", p, err)
	}

	w, h, err := Fit(cfg.Width, cfg.Height, size)
	if err != nil {
		return Image{}, err
	}
	url := fmt.Sprintf("%s/%d", d.BaseURL, id)
	if size != "" && size != SizeFull {
		url += "?size=" + size
	}
	return Image{ID: id, URL: url, Width: w, Height: h}, nil
}

// Open decodes id and scales it to w×h.
func (d Dir) Open(id, w, h int) (image.Image, error) {
	p, err := d.Path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return Scale(src, w, h), nil
}

// Scale resamples src to exactly w×h. Non-positive sizes keep src's size.
func Scale(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	if w <= 0 || h <= 0 || (w == b.Dx() && h == b.Dy()) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// Fit returns w×h scaled down to the named size's bound, keeping the aspect
// ratio. Images are never enlarged; "full" and "" keep the native size.
func Fit(w, h int, size string) (int, int, error) {
	if size == "" || size == SizeFull {
		return w, h, nil
	}
	bound, ok := Sizes[size]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownSize, size)
	}
	if w <= bound && h <= bound {
		return w, h, nil
	}
	scale := math.Min(float64(bound)/float64(w), float64(bound)/float64(h))
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale))), nil
}
