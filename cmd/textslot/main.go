// textslot — Text slot layouts for product images.
//
// Usage:
//
//	textslot init [-force]
//	textslot list
//	textslot show [name]
//	textslot validate [-sanitize] [-o <file>] <file>
//	textslot create [-from <file>] <name>
//	textslot rename <old> <new>
//	textslot copy <name> [new]
//	textslot delete <name>
//	textslot compact [-w 600 -h 600] [-lines 1,2] <name>
//	textslot preview -text <text> -o <file.png> [options] <name>
//	textslot export -o <file.zip> [names...]
//	textslot import [-overwrite] <file.zip>
//	textslot upgrade
//	textslot uninstall
//	textslot serve [-addr :8080]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/xob0t/textslot/pkg/config"
	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/logging"
	"github.com/xob0t/textslot/pkg/measure"
	"github.com/xob0t/textslot/pkg/preview"
	"github.com/xob0t/textslot/pkg/repository"
	"github.com/xob0t/textslot/pkg/store"
)

// version is stamped into the store on install and upgrade.
var version = "dev"

var commands = map[string]func([]string) error{
	"init":      runInit,
	"list":      runList,
	"show":      runShow,
	"validate":  runValidate,
	"create":    runCreate,
	"rename":    runRename,
	"copy":      runCopy,
	"delete":    runDelete,
	"compact":   runCompact,
	"preview":   runPreview,
	"export":    runExport,
	"import":    runImport,
	"upgrade":   runUpgrade,
	"uninstall": runUninstall,
	"serve":     runServe,
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch cmd := os.Args[1]; cmd {
	case "help", "-h", "--help":
		printUsage()
	default:
		run, ok := commands[cmd]
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
			printUsage()
			os.Exit(1)
		}
		if err := run(os.Args[2:]); err != nil {
			fatal(err)
		}
	}
}

// ── Shared flags ──

// globals are the flags every subcommand accepts. They override the config
// file, which overrides the defaults.
type globals struct {
	configPath string
	db         string
	assets     string
	measurer   string
	verbose    bool
}

func newFlagSet(name string) (*flag.FlagSet, *globals) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	g := &globals{}
	fs.StringVar(&g.configPath, "config", "", "JSON config file")
	fs.StringVar(&g.db, "db", "", "Layout database file")
	fs.StringVar(&g.assets, "assets", "", "Image asset directory")
	fs.StringVar(&g.measurer, "measurer", "", "Text measurer: opentype, canvas or shaper")
	fs.BoolVar(&g.verbose, "v", false, "Debug logging")
	fs.Usage = printUsage
	return fs, g
}

// load resolves the configuration and installs the logger.
func (g *globals) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.db != "" {
		cfg.DBPath = g.db
	}
	if g.assets != "" {
		cfg.AssetsDir = g.assets
	}
	if g.measurer != "" {
		cfg.Measurer = g.measurer
	}
	cfg.Verbose = cfg.Verbose || g.verbose

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, cfg.Validate()
}

// ── Components ──

// openRepo opens the layout database. With install set, a database that was
// never installed is seeded first.
func openRepo(cfg config.Config, install bool) (*repository.Repository, func(), error) {
	db, err := store.OpenBolt(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logging.Logger().Warn("close database", "error", err)
		}
	}
	repo := repository.New(db, version)
	if install && !repo.Installed() {
		if err := repo.Install(false); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	return repo, closeDB, nil
}

type engine struct {
	set      *measure.Set
	fit      *fit.Engine
	images   images.Dir
	renderer *preview.Renderer
}

func newEngine(cfg config.Config) (*engine, error) {
	set, err := measure.New(cfg.Measurer, cfg.FontFiles...)
	if err != nil {
		return nil, fmt.Errorf("measurer: %w", err)
	}
	dir := images.Dir{Root: cfg.AssetsDir, BaseURL: "/images"}
	return &engine{
		set:      set,
		fit:      fit.New(set.Measurer, fit.NewMetrics(set.Calibrator())),
		images:   dir,
		renderer: preview.NewRenderer(set.Fonts, dir),
	}, nil
}

func (e *engine) Close() {
	e.set.Fonts.Close()
}

// ── Helpers ──

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`textslot — Text slot layouts for product images

USAGE:
    textslot <command> [options] [args]

LAYOUTS:
    init [-force]                      Create the database with the template layout
    list                               List layouts, * marks the current one
    show [name]                        Print a layout as JSON (default: current)
    validate [-sanitize] [-o <file>] <file>
                                       Check a layout JSON file
    create [-from <file>] <name>       Add a layout (default: the built-in one)
    rename <old> <new>                 Rename a layout
    copy <name> [new]                  Copy a layout (default: a numbered name)
    delete <name>                      Delete a layout

SHOPPER:
    compact [-w <px> -h <px>] [-size <name>] [-lines 1,2] <name>
                                       Print the compact variants for an image size
    preview -text <text> -o <file.png> [-w <px> -h <px>] [-size <name>] [-single] <name>
                                       Render a message the way the product page does

BUNDLES:
    export -o <file.zip> [names...]    Write layouts to a bundle (default: all)
    import [-overwrite] <file.zip>     Add the layouts of a bundle

MAINTENANCE:
    upgrade                            Migrate stored layouts to the current schema
    uninstall                          Remove all data when clean delete is on
    serve [-addr :8080]                Start the HTTP API

COMMON OPTIONS:
    -config <file>      JSON config file
    -db <file>          Layout database (default: textslot.db)
    -assets <dir>       Image assets, named <id>.<ext> (default: assets)
    -measurer <name>    opentype, canvas or shaper (default: opentype)
    -v                  Debug logging

EXAMPLES:
    textslot init
    textslot create Mugs
    textslot compact -size shop_catalog Mugs
    textslot preview -text "Happy birthday" -o mug.png Mugs
    textslot export -o layouts.zip
`)
}
