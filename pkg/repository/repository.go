// Package repository stores named layouts. Names are compared without regard
// to case, the special keys "settings", "ver", "db_ver" and "layouts" can
// never be used, and at least one layout always exists once installed.
//
// Every operation that touches more than one key runs in a single store
// transaction, so the name index, the layout content and the current-layout
// pointer are always seen in a consistent state.
package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/logging"
	"github.com/xob0t/textslot/pkg/store"
)

// Store keys that are not layouts.
const (
	keyIndex    = "layouts"
	keySettings = "settings"
	keyVersion  = "ver"
	keyDBVer    = "db_ver"
)

// Repository is the named-layout store.
type Repository struct {
	store   store.Store
	version string
}

// New wraps s. version is recorded under "ver" on install and upgrade.
func New(s store.Store, version string) *Repository {
	return &Repository{store: s, version: version}
}

// List returns layout names in insertion order. Index entries that are not
// non-empty strings are skipped; only an index that cannot be decoded at all
// is an error.
func (r *Repository) List() ([]string, error) {
	var names []string
	err := r.store.View(func(tx store.Tx) error {
		var err error
		names, err = readIndex(tx)
		return err
	})
	return names, err
}

// Exists reports whether name is a stored layout. An unreadable index counts
// as no.
func (r *Repository) Exists(name string) bool {
	names, err := r.List()
	if err != nil {
		return false
	}
	return indexOf(names, name) >= 0
}

// Load returns the named layout. A stored record that fails validation is
// returned as a wrapped layout.ErrInvalidLayout.
func (r *Repository) Load(name string) (*layout.Layout, error) {
	var l *layout.Layout
	err := r.store.View(func(tx store.Tx) error {
		var err error
		l, err = loadLayout(tx, name)
		return err
	})
	return l, err
}

// Save overwrites an existing layout. The name must already be indexed and
// the layout must already be valid; the index is not touched.
func (r *Repository) Save(name string, l *layout.Layout) error {
	data, err := encodeValid(l)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	return r.store.Update(func(tx store.Tx) error {
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		i := indexOf(names, name)
		if i < 0 {
			return fmt.Errorf("save %q: %w", name, ErrNotFound)
		}
		return tx.Put(contentKey(names[i]), data)
	})
}

// Create stores l under a new name and appends it to the index.
func (r *Repository) Create(name string, l *layout.Layout) error {
	name = layout.SanitizeName(name)
	data, err := encodeValid(l)
	if err != nil {
		return fmt.Errorf("create %q: %w", name, err)
	}
	return r.store.Update(func(tx store.Tx) error {
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		if err := checkNewName(names, name); err != nil {
			return fmt.Errorf("create %q: %w", name, err)
		}
		if err := tx.Put(contentKey(name), data); err != nil {
			return err
		}
		return writeIndex(tx, append(names, name))
	})
}

// Rename moves a layout to a new name, keeping its position in the index. A
// current-layout pointer that referenced the old name follows it.
func (r *Repository) Rename(oldName, newName string) error {
	newName = layout.SanitizeName(newName)
	return r.store.Update(func(tx store.Tx) error {
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		i := indexOf(names, oldName)
		if i < 0 {
			return fmt.Errorf("rename %q: %w", oldName, ErrNotFound)
		}
		if err := checkNewName(names, newName); err != nil {
			return fmt.Errorf("rename %q to %q: %w", oldName, newName, err)
		}
		l, err := loadLayout(tx, names[i])
		if err != nil {
			return err
		}
		data, err := l.Encode()
		if err != nil {
			return err
		}

		if err := tx.Delete(contentKey(names[i])); err != nil {
			return err
		}
		if err := tx.Put(contentKey(newName), data); err != nil {
			return err
		}
		renamed := append([]string(nil), names...)
		renamed[i] = newName
		if err := writeIndex(tx, renamed); err != nil {
			return err
		}

		s := readSettings(tx)
		if sameName(s.CurrentLayout, names[i]) {
			s.CurrentLayout = newName
			return writeSettings(tx, s)
		}
		return nil
	})
}

// Copy duplicates a layout under a new name, appends it to the index and
// makes the copy current.
func (r *Repository) Copy(name, newName string) error {
	newName = layout.SanitizeName(newName)
	return r.store.Update(func(tx store.Tx) error {
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		i := indexOf(names, name)
		if i < 0 {
			return fmt.Errorf("copy %q: %w", name, ErrNotFound)
		}
		if err := checkNewName(names, newName); err != nil {
			return fmt.Errorf("copy %q to %q: %w", name, newName, err)
		}
		l, err := loadLayout(tx, names[i])
		if err != nil {
			return err
		}
		data, err := l.Encode()
		if err != nil {
			return err
		}
		if err := tx.Put(contentKey(newName), data); err != nil {
			return err
		}
		if err := writeIndex(tx, append(names, newName)); err != nil {
			return err
		}

		s := readSettings(tx)
		s.CurrentLayout = newName
		return writeSettings(tx, s)
	})
}

// Delete removes a layout. The last remaining layout cannot be deleted. A
// current-layout pointer to the deleted name moves to the first remaining
// layout.
func (r *Repository) Delete(name string) error {
	return r.store.Update(func(tx store.Tx) error {
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		i := indexOf(names, name)
		if i < 0 {
			return fmt.Errorf("delete %q: %w", name, ErrNotFound)
		}
		if len(names) <= 1 {
			return fmt.Errorf("delete %q: %w", name, ErrLastLayout)
		}

		deleted := names[i]
		remaining := append(append([]string(nil), names[:i]...), names[i+1:]...)
		if err := tx.Delete(contentKey(deleted)); err != nil {
			return err
		}
		if err := writeIndex(tx, remaining); err != nil {
			return err
		}

		s := readSettings(tx)
		if sameName(s.CurrentLayout, deleted) {
			s.CurrentLayout = remaining[0]
			return writeSettings(tx, s)
		}
		return nil
	})
}

// ── Transaction helpers ──

func readIndex(tx store.Tx) ([]string, error) {
	data, ok, err := tx.Get(keyIndex)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	names := make([]string, 0, len(raw))
	for i, e := range raw {
		s, ok := e.(string)
		if ok {
			s = layout.SanitizeName(s)
		}
		if !ok || s == "" {
			logging.Logger().Warn("skipping corrupt index entry", "position", i, "value", e)
			continue
		}
		names = append(names, s)
	}
	return names, nil
}

func writeIndex(tx store.Tx, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return tx.Put(keyIndex, data)
}

func loadLayout(tx store.Tx, name string) (*layout.Layout, error) {
	names, err := readIndex(tx)
	if err != nil {
		return nil, err
	}
	i := indexOf(names, name)
	if i < 0 {
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	data, ok, err := tx.Get(contentKey(names[i]))
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	l, err := layout.Parse(data, false)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return l, nil
}

func encodeValid(l *layout.Layout) ([]byte, error) {
	valid, err := layout.Check(l, false)
	if err != nil {
		return nil, err
	}
	return valid.Encode()
}

func checkNewName(names []string, name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if layout.IsReserved(name) || indexOf(names, name) >= 0 {
		return ErrAlreadyExists
	}
	return nil
}

// contentKey is where a layout's record lives. Folding makes the key as
// case-insensitive as the name.
func contentKey(name string) string {
	return layout.FoldName(name)
}

func indexOf(names []string, name string) int {
	name = strings.TrimSpace(name)
	for i, n := range names {
		if sameName(n, name) {
			return i
		}
	}
	return -1
}

func sameName(a, b string) bool {
	return layout.FoldName(a) == layout.FoldName(b)
}
