package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/measure"
	"github.com/xob0t/textslot/pkg/preview"
	"github.com/xob0t/textslot/pkg/repository"
	"github.com/xob0t/textslot/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := repository.New(store.NewMemory(), "test")
	if err := repo.Install(false); err != nil {
		t.Fatalf("Install: %v", err)
	}
	ot, err := measure.NewOpenType()
	if err != nil {
		t.Fatalf("NewOpenType: %v", err)
	}
	t.Cleanup(func() { ot.Close() })

	m := measure.Fixed(0.5)
	dir := images.Dir{Root: t.TempDir(), BaseURL: "/images"}
	ts := httptest.NewServer(New(Deps{
		Repo:     repo,
		Engine:   fit.New(m, nil),
		Measurer: m,
		Renderer: preview.NewRenderer(ot, dir),
		Images:   dir,
		Family:   measure.DefaultFamily,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func expect(t *testing.T, resp *http.Response, body []byte, status int) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("%s %s: status %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, status, body)
	}
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestLayoutLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/api/layouts", "")
	expect(t, resp, body, http.StatusOK)
	list := decode[struct {
		Layouts []string `json:"layouts"`
		Current string   `json:"current"`
	}](t, body)
	if len(list.Layouts) != 1 || list.Current != "template" {
		t.Fatalf("list: %+v", list)
	}

	resp, body = do(t, ts, "POST", "/api/layouts", `{"name": "Mugs"}`)
	expect(t, resp, body, http.StatusCreated)
	resp, body = do(t, ts, "POST", "/api/layouts", `{"name": "MUGS"}`)
	expect(t, resp, body, http.StatusConflict)
	resp, body = do(t, ts, "POST", "/api/layouts", `{"name": "Settings"}`)
	expect(t, resp, body, http.StatusConflict)

	resp, body = do(t, ts, "GET", "/api/layouts/mugs", "")
	expect(t, resp, body, http.StatusOK)
	l := decode[layout.Layout](t, body)
	if l.MaxLines != 1 || l.Formats[1][0].MaxFont != 60 {
		t.Errorf("created layout: %+v", l)
	}

	resp, body = do(t, ts, "POST", "/api/layouts/Mugs/rename", `{"name": "Cups"}`)
	expect(t, resp, body, http.StatusOK)
	resp, body = do(t, ts, "GET", "/api/layouts/Mugs", "")
	expect(t, resp, body, http.StatusNotFound)

	resp, body = do(t, ts, "POST", "/api/layouts/Cups/copy", "")
	expect(t, resp, body, http.StatusCreated)
	copied := decode[map[string]string](t, body)["name"]
	resp, body = do(t, ts, "GET", "/api/layouts/"+strings.ReplaceAll(copied, " ", "%20"), "")
	expect(t, resp, body, http.StatusOK)

	for _, name := range []string{"Cups", "template"} {
		resp, body = do(t, ts, "DELETE", "/api/layouts/"+name, "")
		expect(t, resp, body, http.StatusOK)
	}
	resp, body = do(t, ts, "DELETE", "/api/layouts/"+strings.ReplaceAll(copied, " ", "%20"), "")
	expect(t, resp, body, http.StatusConflict)
}

func TestSaveRejectsInvalidLayout(t *testing.T) {
	ts := newTestServer(t)
	l := layout.Default()
	l.MultilineReformat, l.NumberOfLines, l.SinglelineReformat = "a", "b", "c"
	data, _ := l.Encode()
	bad := strings.Replace(string(data), `"MaxLines":1`, `"MaxLines":11`, 1)

	resp, body := do(t, ts, "PUT", "/api/layouts/template", bad)
	expect(t, resp, body, http.StatusUnprocessableEntity)
	eb := decode[errorBody](t, body)
	if len(eb.Problems) == 0 {
		t.Errorf("no problems reported: %s", body)
	}

	resp, body = do(t, ts, "PUT", "/api/layouts/template", string(data))
	expect(t, resp, body, http.StatusOK)
}

func TestVariantsAndFit(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/api/layouts/template/variants?width=300&height=300", "")
	expect(t, resp, body, http.StatusOK)
	v := decode[struct {
		Variants []layout.Variant `json:"variants"`
	}](t, body)
	if len(v.Variants) != 1 || v.Variants[0].Format != "150,150,150,C,22,30,," {
		t.Errorf("variants: %+v", v.Variants)
	}

	resp, body = do(t, ts, "GET", "/api/layouts/template/fit?text=Hi&width=300&height=300", "")
	expect(t, resp, body, http.StatusOK)
	f := decode[struct {
		Lines      int             `json:"lines"`
		Placements []fit.Placement `json:"placements"`
	}](t, body)
	if f.Lines != 1 || len(f.Placements) != 1 || f.Placements[0].Font != 30 {
		t.Errorf("fit: %+v", f)
	}

	resp, body = do(t, ts, "GET", "/api/layouts/template/fit?text=a%0Ab", "")
	expect(t, resp, body, http.StatusOK)
	if !bytes.Contains(body, []byte("too many lines")) {
		t.Errorf("two lines into one: %s", body)
	}

	resp, body = do(t, ts, "GET", "/api/layouts/template/preview?text=Hello", "")
	expect(t, resp, body, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" || !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Errorf("preview: %s", ct)
	}

	resp, body = do(t, ts, "GET", "/api/layouts/template/variants?size=huge", "")
	expect(t, resp, body, http.StatusBadRequest)
}

func TestEditorSession(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "POST", "/api/editor", `{"name": "template"}`)
	expect(t, resp, body, http.StatusCreated)
	st := decode[editorState](t, body)
	base := "/api/editor/" + st.ID.String()

	resp, body = do(t, ts, "POST", base+"/ops", `[{"op":"SetValue","line":0,"field":"X","value":100.9},{"op":"SetMaxLines","lines":2}]`)
	expect(t, resp, body, http.StatusOK)
	st = decode[editorState](t, body)
	if !st.Modified || st.CurrentLines != 2 || st.Layout.Formats[1][0].X != 100 {
		t.Fatalf("after ops: modified %v current %d", st.Modified, st.CurrentLines)
	}

	resp, body = do(t, ts, "POST", base+"/ops", `{"op":"SetMaxLines","lines":1}`)
	expect(t, resp, body, http.StatusConflict)
	if eb := decode[errorBody](t, body); !eb.Confirm {
		t.Errorf("confirm flag missing: %s", body)
	}

	resp, body = do(t, ts, "POST", base+"/ops", `{"op":"Teleport"}`)
	expect(t, resp, body, http.StatusBadRequest)

	resp, body = do(t, ts, "POST", base+"/save", "")
	expect(t, resp, body, http.StatusOK)
	if st = decode[editorState](t, body); st.Modified {
		t.Error("saved session still modified")
	}
	resp, body = do(t, ts, "GET", "/api/layouts/template", "")
	expect(t, resp, body, http.StatusOK)
	if l := decode[layout.Layout](t, body); l.MaxLines != 2 || l.Formats[1][0].X != 100 {
		t.Errorf("stored: max %d X %d", l.MaxLines, l.Formats[1][0].X)
	}

	resp, body = do(t, ts, "GET", base+"/preview", "")
	expect(t, resp, body, http.StatusOK)

	resp, body = do(t, ts, "POST", "/api/layouts/template/rename", `{"name": "Shirts"}`)
	expect(t, resp, body, http.StatusOK)
	resp, body = do(t, ts, "GET", base, "")
	expect(t, resp, body, http.StatusOK)
	if st = decode[editorState](t, body); st.Name != "Shirts" {
		t.Errorf("session did not follow rename: %q", st.Name)
	}

	resp, body = do(t, ts, "DELETE", base, "")
	expect(t, resp, body, http.StatusNoContent)
	resp, body = do(t, ts, "GET", base, "")
	expect(t, resp, body, http.StatusNotFound)
	resp, body = do(t, ts, "GET", "/api/editor/not-a-uuid", "")
	expect(t, resp, body, http.StatusBadRequest)
}

func TestExportImportAndSettings(t *testing.T) {
	ts := newTestServer(t)

	resp, bundle := do(t, ts, "GET", "/api/export", "")
	expect(t, resp, bundle, http.StatusOK)

	req, _ := http.NewRequest("POST", ts.URL+"/api/import", bytes.NewReader(bundle))
	req.Header.Set("Content-Type", "application/zip")
	iresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(iresp.Body)
	iresp.Body.Close()
	expect(t, iresp, body, http.StatusOK)
	results := decode[[]importResult](t, body)
	if len(results) != 1 || results[0].Error != "" || results[0].Name == "template" {
		t.Fatalf("import: %+v", results)
	}

	resp, body = do(t, ts, "PUT", "/api/settings", `{"cleanDelete": true, "currentLayout": "`+results[0].Name+`"}`)
	expect(t, resp, body, http.StatusOK)
	s := decode[settingsBody](t, body)
	if !*s.CleanDelete || *s.CurrentLayout != results[0].Name {
		t.Errorf("settings: %v %v", *s.CleanDelete, *s.CurrentLayout)
	}

	resp, body = do(t, ts, "PUT", "/api/settings", `{"currentLayout": "nope"}`)
	expect(t, resp, body, http.StatusNotFound)
}

func TestImagesNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts, "GET", "/api/images/12", "")
	expect(t, resp, body, http.StatusNotFound)
	resp, body = do(t, ts, "GET", "/api/images/x", "")
	expect(t, resp, body, http.StatusBadRequest)
}
