// Package config holds the runtime settings shared by the CLI and the
// server. A Config is built once at startup and passed down explicitly.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/xob0t/textslot/pkg/measure"
)

// Config is the process configuration.
type Config struct {
	DBPath    string   `json:"db"`       // bbolt file holding the layouts
	AssetsDir string   `json:"assets"`   // directory of <id>.<ext> images
	FontFiles []string `json:"fonts"`    // extra TTF/OTF files, family = file name
	Family    string   `json:"family"`   // family used for shopper text
	Measurer  string   `json:"measurer"` // opentype, canvas or shaper
	Addr      string   `json:"addr"`     // HTTP listen address
	Verbose   bool     `json:"verbose"`  // debug logging
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:    "textslot.db",
		AssetsDir: "assets",
		Family:    measure.DefaultFamily,
		Measurer:  measure.BackendOpenType,
		Addr:      ":8080",
	}
}

// Load reads a JSON file over the defaults. Keys absent from the file keep
// their default. A missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

var backends = []string{measure.BackendOpenType, measure.BackendCanvas, measure.BackendShaper}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	if c.Measurer != "" && !slices.Contains(backends, c.Measurer) {
		errs = append(errs, fmt.Errorf("unknown measurer %q", c.Measurer))
	}
	if c.Family == "" {
		errs = append(errs, errors.New("font family is empty"))
	}
	return errors.Join(errs...)
}
