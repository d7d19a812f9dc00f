// editors.go — Editor sessions keyed by UUID, each behind its own lock.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/xob0t/textslot/pkg/editor"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/preview"
)

var errNoEditor = errors.New("editor session not found")

// ── Session Manager ──

type editorEntry struct {
	mu sync.Mutex
	ed *editor.Session
}

type editorManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*editorEntry
}

func newEditorManager() *editorManager {
	return &editorManager{sessions: make(map[uuid.UUID]*editorEntry)}
}

func (em *editorManager) add(ed *editor.Session) uuid.UUID {
	id := uuid.New()
	em.mu.Lock()
	em.sessions[id] = &editorEntry{ed: ed}
	em.mu.Unlock()
	return id
}

func (em *editorManager) get(raw string) (uuid.UUID, *editorEntry, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, badRequest("session id %q", raw)
	}
	em.mu.RLock()
	e, ok := em.sessions[id]
	em.mu.RUnlock()
	if !ok {
		return id, nil, errNoEditor
	}
	return id, e, nil
}

func (em *editorManager) remove(id uuid.UUID) {
	em.mu.Lock()
	delete(em.sessions, id)
	em.mu.Unlock()
}

// renamed points sessions editing oldName at newName.
func (em *editorManager) renamed(oldName, newName string) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	for _, e := range em.sessions {
		e.mu.Lock()
		if layout.FoldName(e.ed.Name()) == layout.FoldName(oldName) {
			e.ed.Rename(newName)
		}
		e.mu.Unlock()
	}
}

// ── State ──

type editorState struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Modified     bool                  `json:"modified"`
	CurrentLines int                   `json:"currentLines"`
	Sizing       editor.Field          `json:"sizing"`
	LastLine     int                   `json:"lastLine"`
	KeepSame     map[editor.Field]bool `json:"keepSame"`
	Guides       []editor.Guide        `json:"guides"`
	Layout       *layout.Layout        `json:"layout"`
}

func (s *srv) state(id uuid.UUID, ed *editor.Session) editorState {
	return editorState{
		ID:           id,
		Name:         ed.Name(),
		Modified:     ed.Modified(),
		CurrentLines: ed.CurrentLines(),
		Sizing:       ed.Sizing(),
		LastLine:     ed.LastLine(),
		KeepSame:     ed.KeepSameFlags(),
		Guides:       ed.Guides(s.Engine.Metrics(), s.Family),
		Layout:       ed.Layout(),
	}
}

// withEditor runs fn with the session locked and replies with its state.
func (s *srv) withEditor(w http.ResponseWriter, r *http.Request, fn func(ed *editor.Session) error) {
	id, e, err := s.editors.get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn != nil {
		if err := fn(e.ed); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.state(id, e.ed))
}

// ── Handlers ──

func (s *srv) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		current, err := s.Repo.Current()
		if err != nil {
			writeError(w, err)
			return
		}
		req.Name = current
	}
	ed, err := editor.Load(s.Repo, req.Name, s.Images)
	if err != nil {
		writeError(w, err)
		return
	}
	id := s.editors.add(ed)
	writeJSON(w, http.StatusCreated, s.state(id, ed))
}

func (s *srv) handleEditorState(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, nil)
}

func (s *srv) handleCloseEditor(w http.ResponseWriter, r *http.Request) {
	id, _, err := s.editors.get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.editors.remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleEditorOps applies one op object or an array of them, in order. The
// first failing op stops the batch; earlier ops stay applied.
func (s *srv) handleEditorOps(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, badRequest("read body: %v", err))
		return
	}
	ops, err := decodeOps(data)
	if err != nil {
		writeError(w, err)
		return
	}
	s.withEditor(w, r, func(ed *editor.Session) error {
		for _, o := range ops {
			if err := ed.Apply(o); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeOps(data []byte) ([]editor.Op, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, badRequest("decode ops: %v", err)
		}
		ops := make([]editor.Op, 0, len(raws))
		for _, raw := range raws {
			o, err := editor.DecodeOp(raw)
			if err != nil {
				return nil, err
			}
			ops = append(ops, o)
		}
		return ops, nil
	}
	o, err := editor.DecodeOp(data)
	if err != nil {
		return nil, err
	}
	return []editor.Op{o}, nil
}

func (s *srv) handleEditorSave(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(ed *editor.Session) error { return ed.Save(s.Repo) })
}

func (s *srv) handleEditorRevert(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(ed *editor.Session) error { return ed.Revert(s.Repo) })
}

func (s *srv) handleEditorPreview(w http.ResponseWriter, r *http.Request) {
	_, e, err := s.editors.get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	e.mu.Lock()
	sc := preview.EditorScene(e.ed, s.Engine, s.Measurer, s.Family)
	l := e.ed.Layout()
	e.mu.Unlock()

	img, err := s.Renderer.Render(l, sc)
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
	w.Write(buf.Bytes())
}
