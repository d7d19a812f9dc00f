// layouts.go — Layout, bundle, settings and image handlers.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/preview"
)

// ── Layout CRUD ──

func (s *srv) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	names, err := s.Repo.List()
	if err != nil {
		writeError(w, err)
		return
	}
	current, _ := s.Repo.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"layouts": names,
		"current": current,
	})
}

func (s *srv) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string          `json:"name"`
		Layout json.RawMessage `json:"layout"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	l := layout.Default()
	if len(req.Layout) > 0 && string(req.Layout) != "null" {
		var err error
		if l, err = layout.Parse(req.Layout, true); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := s.Repo.Create(req.Name, l); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": layout.SanitizeName(req.Name)})
}

func (s *srv) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.Repo.Load(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *srv) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, badRequest("read body: %v", err))
		return
	}
	l, err := layout.Parse(data, true)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Repo.Save(r.PathValue("name"), l); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *srv) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.Repo.Delete(name); err != nil {
		writeError(w, err)
		return
	}
	current, _ := s.Repo.Current()
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name, "current": current})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *srv) handleRenameLayout(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	old := r.PathValue("name")
	if err := s.Repo.Rename(old, req.Name); err != nil {
		writeError(w, err)
		return
	}
	name := layout.SanitizeName(req.Name)
	s.editors.renamed(old, name)
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

// handleCopyLayout copies to the requested name, or to a suggested one when
// the body names none.
func (s *srv) handleCopyLayout(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	src := r.PathValue("name")
	if req.Name == "" {
		req.Name = s.Repo.SuggestName(src)
	}
	if err := s.Repo.Copy(src, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": layout.SanitizeName(req.Name)})
}

// ── Shopper side ──

// displaySize picks the rendered size: explicit width and height, else the
// named image size of the setup image, else the setup size.
func (s *srv) displaySize(r *http.Request, l *layout.Layout) (int, int, error) {
	size := r.URL.Query().Get("size")
	w, h := l.SetupWidth, l.SetupHeight
	if size != "" {
		fw, fh, err := images.Fit(w, h, size)
		if err != nil {
			return 0, 0, err
		}
		w, h = images.Dimensions(s.Images, l.SetupImage, size, fw, fh)
	}
	w, err := queryInt(r, "width", w)
	if err != nil {
		return 0, 0, err
	}
	h, err = queryInt(r, "height", h)
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 || w > layout.MaxImageSize || h > layout.MaxImageSize {
		return 0, 0, badRequest("display size %d×%d out of range", w, h)
	}
	return w, h, nil
}

// handleVariants returns the compact variants projected to a display size,
// optionally limited with lines=1,2.
func (s *srv) handleVariants(w http.ResponseWriter, r *http.Request) {
	l, err := s.Repo.Load(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	dw, dh, err := s.displaySize(r, l)
	if err != nil {
		writeError(w, err)
		return
	}
	only, err := queryInts(r, "lines")
	if err != nil {
		writeError(w, err)
		return
	}
	p := layout.Project(l, dw, dh)
	writeJSON(w, http.StatusOK, map[string]any{
		"width":    p.Width,
		"height":   p.Height,
		"variants": p.Variants(only...),
	})
}

func (s *srv) shopper(r *http.Request) (*layout.Layout, preview.Shopper, error) {
	l, err := s.Repo.Load(r.PathValue("name"))
	if err != nil {
		return nil, preview.Shopper{}, err
	}
	dw, dh, err := s.displaySize(r, l)
	if err != nil {
		return nil, preview.Shopper{}, err
	}
	text := r.URL.Query().Get("text")
	multiline := !queryBool(r, "single")
	return l, preview.ShopperScene(l, s.Engine, s.Family, text, dw, dh, multiline), nil
}

func (s *srv) handleFit(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.shopper(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lines":      res.Lines,
		"warnings":   res.Flags.String(),
		"messages":   res.Messages,
		"placements": res.Scene.Placements,
	})
}

func (s *srv) handlePreview(w http.ResponseWriter, r *http.Request) {
	l, res, err := s.shopper(r)
	if err != nil {
		writeError(w, err)
		return
	}
	img, err := s.Renderer.Render(l, res.Scene)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf, img); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Textslot-Warnings", res.Flags.String())
	w.Write(buf.Bytes())
}

// ── Bundles ──

func (s *srv) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.Repo.Export(&buf, r.URL.Query()["name"]...); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="layouts.zip"`)
	w.Write(buf.Bytes())
}

type importResult struct {
	Name     string `json:"name,omitempty"`
	Original string `json:"original"`
	Error    string `json:"error,omitempty"`
}

// handleImport accepts a bundle as the raw body or as the "file" field of a
// multipart form.
func (s *srv) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBundle)
	var src io.Reader = r.Body
	if isMultipart(r) {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, badRequest("no file uploaded"))
			return
		}
		defer file.Close()
		src = file
	}
	data, err := io.ReadAll(src)
	if err != nil {
		writeError(w, badRequest("read bundle: %v", err))
		return
	}
	results, err := s.Repo.Import(bytes.NewReader(data), int64(len(data)), queryBool(r, "overwrite"))
	if err != nil {
		writeError(w, badRequest("%v", err))
		return
	}
	out := make([]importResult, len(results))
	for i, res := range results {
		out[i] = importResult{Name: res.Name, Original: res.Original}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mt, "multipart/")
}

// ── Settings ──

type settingsBody struct {
	CurrentLayout *string `json:"currentLayout,omitempty"`
	CleanDelete   *bool   `json:"cleanDelete,omitempty"`
}

func (s *srv) settings() (settingsBody, error) {
	current, err := s.Repo.Current()
	if err != nil {
		return settingsBody{}, err
	}
	clean := s.Repo.CleanDelete()
	return settingsBody{CurrentLayout: &current, CleanDelete: &clean}, nil
}

func (s *srv) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	body, err := s.settings()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *srv) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsBody
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.CurrentLayout != nil {
		if err := s.Repo.SetCurrent(*req.CurrentLayout); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.CleanDelete != nil {
		if err := s.Repo.SetCleanDelete(*req.CleanDelete); err != nil {
			writeError(w, err)
			return
		}
	}
	s.handleGetSettings(w, r)
}

// ── Images ──

func imageID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, badRequest("image id %q", r.PathValue("id"))
	}
	return id, nil
}

// handleImageAttributes returns the URL and size of an image asset.
func (s *srv) handleImageAttributes(w http.ResponseWriter, r *http.Request) {
	id, err := imageID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	img, err := s.Images.Resolve(id, r.URL.Query().Get("size"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// handleImage serves an asset, scaled to a named size when one is given.
func (s *srv) handleImage(w http.ResponseWriter, r *http.Request) {
	id, err := imageID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	size := r.URL.Query().Get("size")
	if size == "" || size == images.SizeFull {
		p, err := s.Images.Path(id)
		if err != nil {
			writeError(w, err)
			return
		}
		http.ServeFile(w, r, p)
		return
	}
	attr, err := s.Images.Resolve(id, size)
	if err != nil {
		writeError(w, err)
		return
	}
	img, err := s.Images.Open(id, attr.Width, attr.Height)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf, img); err != nil {
		writeError(w, fmt.Errorf("image %d: %w", id, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
