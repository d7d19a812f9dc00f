// Package server provides the textslot HTTP API: layout management, shopper
// previews and editor sessions.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xob0t/textslot/pkg/editor"
	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/logging"
	"github.com/xob0t/textslot/pkg/preview"
	"github.com/xob0t/textslot/pkg/repository"
)

// maxBody caps JSON request bodies; bundles get maxBundle.
const (
	maxBody   = 1 << 20
	maxBundle = 32 << 20
)

// Deps are the components the server drives.
type Deps struct {
	Repo     *repository.Repository
	Engine   *fit.Engine
	Measurer fit.Measurer
	Renderer *preview.Renderer
	Images   images.Dir
	Family   string
}

// ── Server ──

type srv struct {
	Deps
	editors *editorManager
}

// New returns the API handler.
func New(d Deps) http.Handler {
	if d.Family == "" {
		d.Family = "Go"
	}
	s := &srv{Deps: d, editors: newEditorManager()}

	mux := http.NewServeMux()

	// Layouts.
	mux.HandleFunc("GET /api/layouts", s.handleListLayouts)
	mux.HandleFunc("POST /api/layouts", s.handleCreateLayout)
	mux.HandleFunc("GET /api/layouts/{name}", s.handleGetLayout)
	mux.HandleFunc("PUT /api/layouts/{name}", s.handleSaveLayout)
	mux.HandleFunc("DELETE /api/layouts/{name}", s.handleDeleteLayout)
	mux.HandleFunc("POST /api/layouts/{name}/rename", s.handleRenameLayout)
	mux.HandleFunc("POST /api/layouts/{name}/copy", s.handleCopyLayout)
	mux.HandleFunc("GET /api/layouts/{name}/variants", s.handleVariants)
	mux.HandleFunc("GET /api/layouts/{name}/fit", s.handleFit)
	mux.HandleFunc("GET /api/layouts/{name}/preview", s.handlePreview)

	// Bundles and settings.
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)

	// Images.
	mux.HandleFunc("GET /api/images/{id}", s.handleImageAttributes)
	mux.HandleFunc("GET /images/{id}", s.handleImage)

	// Editor sessions.
	mux.HandleFunc("POST /api/editor", s.handleOpenEditor)
	mux.HandleFunc("GET /api/editor/{id}", s.handleEditorState)
	mux.HandleFunc("DELETE /api/editor/{id}", s.handleCloseEditor)
	mux.HandleFunc("POST /api/editor/{id}/ops", s.handleEditorOps)
	mux.HandleFunc("POST /api/editor/{id}/save", s.handleEditorSave)
	mux.HandleFunc("POST /api/editor/{id}/revert", s.handleEditorRevert)
	mux.HandleFunc("GET /api/editor/{id}/preview", s.handleEditorPreview)

	return logRequests(mux)
}

// RunServe listens on addr until the server fails.
func RunServe(addr string, d Deps) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           New(d),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logging.Logger().Info("textslot API listening", "addr", addr)
	return srv.ListenAndServe()
}

// ── Middleware ──

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logging.Logger().Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("took", time.Since(start)))
	})
}

// ── Responses ──

type errorBody struct {
	Error    string           `json:"error"`
	Problems []layout.Problem `json:"problems,omitempty"`
	Confirm  bool             `json:"confirm,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, images.ErrNotFound),
		errors.Is(err, errNoEditor):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrLastLayout),
		errors.Is(err, editor.ErrConfirmRequired):
		return http.StatusConflict
	case errors.Is(err, layout.ErrInvalidLayout):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrInvalidName),
		errors.Is(err, editor.ErrBadOp),
		errors.Is(err, layout.ErrNoFormat),
		errors.Is(err, layout.ErrLineCount),
		errors.Is(err, images.ErrUnknownSize),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotInstalled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logging.Logger().Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{
		Error:    err.Error(),
		Problems: layout.Problems(err),
		Confirm:  errors.Is(err, editor.ErrConfirmRequired),
	})
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("decode body: %v", err)
	}
	return nil
}

// ── Query helpers ──

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s: %q is not an integer", key, v)
	}
	return n, nil
}

// queryInts parses "1,2,3".
func queryInts(r *http.Request, key string) ([]int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, badRequest("%s: %q is not an integer", key, part)
		}
		out = append(out, n)
	}
	return out, nil
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
