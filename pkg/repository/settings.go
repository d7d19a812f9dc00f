// settings.go — Current-layout pointer and uninstall behavior.
package repository

import (
	"encoding/json"
	"fmt"

	"github.com/xob0t/textslot/pkg/logging"
	"github.com/xob0t/textslot/pkg/store"
)

// Settings are the repository-wide preferences stored under "settings".
type Settings struct {
	CurrentLayout string `json:"CurrentLayout"`
	CleanDelete   string `json:"CleanDelete"`
}

func defaultSettings() Settings {
	return Settings{CurrentLayout: "", CleanDelete: "no"}
}

func readSettings(tx store.Tx) Settings {
	s := defaultSettings()
	data, ok, err := tx.Get(keySettings)
	if err != nil || !ok {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		logging.Logger().Warn("ignoring unreadable settings", "error", err)
		return defaultSettings()
	}
	if s.CleanDelete != "yes" {
		s.CleanDelete = "no"
	}
	return s
}

func writeSettings(tx store.Tx, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return tx.Put(keySettings, data)
}

// Current returns the name of the current layout. When the pointer is unset
// or names a layout that no longer exists, the first indexed layout is
// returned instead.
func (r *Repository) Current() (string, error) {
	var name string
	err := r.store.View(func(tx store.Tx) error {
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return ErrNotInstalled
		}
		s := readSettings(tx)
		if i := indexOf(names, s.CurrentLayout); i >= 0 {
			name = names[i]
			return nil
		}
		name = names[0]
		return nil
	})
	return name, err
}

// SetCurrent points the current-layout pointer at name.
func (r *Repository) SetCurrent(name string) error {
	return r.store.Update(func(tx store.Tx) error {
		names, err := readIndex(tx)
		if err != nil {
			return err
		}
		i := indexOf(names, name)
		if i < 0 {
			return fmt.Errorf("set current %q: %w", name, ErrNotFound)
		}
		s := readSettings(tx)
		s.CurrentLayout = names[i]
		return writeSettings(tx, s)
	})
}

// CleanDelete reports whether Uninstall removes stored data. It is off when
// the store cannot be read.
func (r *Repository) CleanDelete() bool {
	var on bool
	if err := r.store.View(func(tx store.Tx) error {
		on = readSettings(tx).CleanDelete == "yes"
		return nil
	}); err != nil {
		logging.Logger().Warn("cannot read settings", "error", err)
		return false
	}
	return on
}

// SetCleanDelete records whether Uninstall removes stored data.
func (r *Repository) SetCleanDelete(on bool) error {
	return r.store.Update(func(tx store.Tx) error {
		s := readSettings(tx)
		s.CleanDelete = "no"
		if on {
			s.CleanDelete = "yes"
		}
		return writeSettings(tx, s)
	})
}
