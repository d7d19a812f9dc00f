// install.go — First-run seeding, schema upgrades and removal.
package repository

import (
	"fmt"
	"strconv"

	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/logging"
	"github.com/xob0t/textslot/pkg/store"
)

// Installed reports whether a name index exists. A store that cannot be
// read reports false and logs the failure.
func (r *Repository) Installed() bool {
	var ok bool
	err := r.store.View(func(tx store.Tx) error {
		var err error
		_, ok, err = tx.Get(keyIndex)
		return err
	})
	if err != nil {
		logging.Logger().Warn("cannot read layout index", "error", err)
		return false
	}
	return ok
}

// Install seeds the store with the default template layout. An existing
// installation is left untouched unless force is set, in which case every
// stored key is removed first.
func (r *Repository) Install(force bool) error {
	tmpl := layout.Default()
	for _, kind := range []layout.MessageKind{layout.MessageMultiline, layout.MessageTooManyLines, layout.MessageSingleline} {
		tmpl.SetMessage(kind, layout.DefaultMessage(kind))
	}
	data, err := encodeValid(tmpl)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}

	return r.store.Update(func(tx store.Tx) error {
		if _, ok, err := tx.Get(keyIndex); err != nil {
			return err
		} else if ok && !force {
			logging.Logger().Debug("already installed")
			return nil
		}
		if force {
			if err := deleteAll(tx); err != nil {
				return err
			}
		}

		if err := tx.Put(contentKey(layout.DefaultName), data); err != nil {
			return err
		}
		if err := writeIndex(tx, []string{layout.DefaultName}); err != nil {
			return err
		}
		s := defaultSettings()
		s.CurrentLayout = layout.DefaultName
		if err := writeSettings(tx, s); err != nil {
			return err
		}
		if err := r.writeVersions(tx); err != nil {
			return err
		}
		logging.Logger().Info("installed", "layout", layout.DefaultName, "force", force)
		return nil
	})
}

// Uninstall removes every stored key, but only when CleanDelete is on. It
// reports whether anything was removed.
func (r *Repository) Uninstall() (bool, error) {
	removed := false
	err := r.store.Update(func(tx store.Tx) error {
		if readSettings(tx).CleanDelete != "yes" {
			return nil
		}
		removed = true
		return deleteAll(tx)
	})
	return removed, err
}

// Upgrade migrates every stored layout to the current schema when the stored
// schema version is older. Layouts that still fail validation after migration
// are left as they were and logged. It returns the number of layouts
// rewritten.
func (r *Repository) Upgrade() (int, error) {
	n := 0
	err := r.store.Update(func(tx store.Tx) error {
		if dbVersion(tx) >= layout.SchemaVersion {
			return nil
		}
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		for _, name := range names {
			data, ok, err := tx.Get(contentKey(name))
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			rec, err := layout.DecodeRecord(data)
			if err != nil {
				logging.Logger().Warn("upgrade: unreadable layout", "name", name, "error", err)
				continue
			}
			l, err := layout.Validate(rec, false)
			if err != nil {
				logging.Logger().Warn("upgrade: invalid layout", "name", name, "error", err)
				continue
			}
			out, err := l.Encode()
			if err != nil {
				return err
			}
			if err := tx.Put(contentKey(name), out); err != nil {
				return err
			}
			n++
		}
		return r.writeVersions(tx)
	})
	return n, err
}

// SchemaVersion returns the stored schema version, 0 when unset or when the
// store cannot be read.
func (r *Repository) SchemaVersion() int {
	v := 0
	if err := r.store.View(func(tx store.Tx) error {
		v = dbVersion(tx)
		return nil
	}); err != nil {
		logging.Logger().Warn("cannot read schema version", "error", err)
		return 0
	}
	return v
}

func (r *Repository) writeVersions(tx store.Tx) error {
	if err := tx.Put(keyVersion, []byte(r.version)); err != nil {
		return err
	}
	return tx.Put(keyDBVer, []byte(strconv.Itoa(layout.SchemaVersion)))
}

func dbVersion(tx store.Tx) int {
	data, ok, err := tx.Get(keyDBVer)
	if err != nil || !ok {
		return 0
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return v
}

func deleteAll(tx store.Tx) error {
	keys, err := tx.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := tx.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
