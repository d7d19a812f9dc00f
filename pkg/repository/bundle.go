// bundle.go — Export and import layouts as ZIP bundles.
//
// A bundle holds layouts.json, a list of {name, file} entries, and one
// layouts/<n>.json record per layout.
package repository

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/logging"
)

const (
	bundleIndex = "layouts.json"
	bundleDir   = "layouts"

	// maxBundleEntry caps a single decompressed file.
	maxBundleEntry = 4 << 20
)

type bundleEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// Export writes the named layouts to w as a ZIP bundle. With no names every
// layout is exported.
func (r *Repository) Export(w io.Writer, names ...string) error {
	if len(names) == 0 {
		all, err := r.List()
		if err != nil {
			return err
		}
		names = all
	}

	zw := zip.NewWriter(w)
	entries := make([]bundleEntry, 0, len(names))
	for i, name := range names {
		l, err := r.Load(name)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		data, err := l.Encode()
		if err != nil {
			return err
		}
		file := path.Join(bundleDir, fmt.Sprintf("%d.json", i))
		fw, err := zw.Create(file)
		if err != nil {
			return fmt.Errorf("export %q: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("export %q: %w", name, err)
		}
		entries = append(entries, bundleEntry{Name: name, File: file})
	}

	index, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	fw, err := zw.Create(bundleIndex)
	if err != nil {
		return err
	}
	if _, err := fw.Write(index); err != nil {
		return err
	}
	return zw.Close()
}

// ImportResult records what happened to each bundle entry.
type ImportResult struct {
	Name     string // name stored under, empty if skipped
	Original string // name in the bundle
	Err      error
}

// Import reads a ZIP bundle and stores each layout. Records are validated
// with sanitizing on, as for any untrusted input. A name that already exists
// is overwritten when overwrite is set and otherwise stored under a
// suggested fresh name. Entries that fail are reported, not fatal.
func (r *Repository) Import(ra io.ReaderAt, size int64, overwrite bool) ([]ImportResult, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[path.Clean(f.Name)] = f
	}

	indexFile, ok := files[bundleIndex]
	if !ok {
		return nil, fmt.Errorf("import: missing %s", bundleIndex)
	}
	data, err := readZipFile(indexFile)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	var entries []bundleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("import: parse %s: %w", bundleIndex, err)
	}

	results := make([]ImportResult, 0, len(entries))
	for _, e := range entries {
		res := ImportResult{Original: e.Name}
		res.Name, res.Err = r.importEntry(files, e, overwrite)
		if res.Err != nil {
			logging.Logger().Warn("import: skipped layout", "name", e.Name, "error", res.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Repository) importEntry(files map[string]*zip.File, e bundleEntry, overwrite bool) (string, error) {
	name := layout.SanitizeName(e.Name)
	if name == "" {
		return "", ErrInvalidName
	}
	file := path.Clean(e.File)
	if strings.HasPrefix(file, "..") || path.IsAbs(file) {
		return "", fmt.Errorf("illegal path in bundle: %s", e.File)
	}
	f, ok := files[file]
	if !ok {
		return "", fmt.Errorf("missing %s", e.File)
	}
	data, err := readZipFile(f)
	if err != nil {
		return "", err
	}
	l, err := layout.Parse(data, true)
	if err != nil {
		return "", err
	}

	if r.Exists(name) || layout.IsReserved(name) {
		if overwrite && !layout.IsReserved(name) {
			return name, r.Save(name, l)
		}
		name = r.SuggestName(name)
	}
	return name, r.Create(name, l)
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxBundleEntry+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxBundleEntry {
		return nil, fmt.Errorf("%s is too large", f.Name)
	}
	return data, nil
}
