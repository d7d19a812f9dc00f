// commands.go — Subcommand implementations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xob0t/textslot/clients/server"
	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/preview"
	"github.com/xob0t/textslot/pkg/repository"
)

// ── Database ──

func runInit(args []string) error {
	fs, g := newFlagSet("init")
	var force bool
	fs.BoolVar(&force, "force", false, "Remove all stored data and reinstall")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, false)
	if err != nil {
		return err
	}
	defer closeDB()

	if repo.Installed() && !force {
		fmt.Printf("Already installed: %s\n", cfg.DBPath)
		return nil
	}
	if err := repo.Install(force); err != nil {
		return err
	}
	fmt.Printf("Installed: %s (layout %q)\n", cfg.DBPath, layout.DefaultName)
	return nil
}

func runUpgrade(args []string) error {
	fs, g := newFlagSet("upgrade")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, false)
	if err != nil {
		return err
	}
	defer closeDB()

	from := repo.SchemaVersion()
	n, err := repo.Upgrade()
	if err != nil {
		return err
	}
	fmt.Printf("Schema %d → %d, %d layout(s) rewritten\n", from, repo.SchemaVersion(), n)
	return nil
}

func runUninstall(args []string) error {
	fs, g := newFlagSet("uninstall")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, false)
	if err != nil {
		return err
	}
	defer closeDB()

	removed, err := repo.Uninstall()
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("Clean delete is off; nothing removed.")
		return nil
	}
	fmt.Printf("Removed all data from %s\n", cfg.DBPath)
	return nil
}

// ── Layouts ──

// withRepo parses the flags, opens an installed repository and calls fn with
// the remaining arguments.
func withRepo(name string, args []string, fn func(repo *repository.Repository, args []string) error) error {
	fs, g := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, true)
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(repo, fs.Args())
}

func runList(args []string) error {
	return withRepo("list", args, func(repo *repository.Repository, _ []string) error {
		names, err := repo.List()
		if err != nil {
			return err
		}
		current, _ := repo.Current()
		for _, name := range names {
			mark := " "
			if name == current {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, name)
		}
		return nil
	})
}

func runShow(args []string) error {
	return withRepo("show", args, func(repo *repository.Repository, rest []string) error {
		name, err := nameOrCurrent(repo, rest)
		if err != nil {
			return err
		}
		l, err := repo.Load(name)
		if err != nil {
			return err
		}
		return printJSON(l)
	})
}

func runCreate(args []string) error {
	fs, g := newFlagSet("create")
	var from string
	fs.StringVar(&from, "from", "", "Layout JSON file to start from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("create needs a layout name")
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}

	l := layout.Default()
	if from != "" {
		data, err := os.ReadFile(from)
		if err != nil {
			return fmt.Errorf("read layout: %w", err)
		}
		if l, err = layout.Parse(data, true); err != nil {
			return explain(err)
		}
	}

	repo, closeDB, err := openRepo(cfg, true)
	if err != nil {
		return err
	}
	defer closeDB()
	if err := repo.Create(fs.Arg(0), l); err != nil {
		return err
	}
	fmt.Printf("Created: %s\n", layout.SanitizeName(fs.Arg(0)))
	return nil
}

func runRename(args []string) error {
	return withRepo("rename", args, func(repo *repository.Repository, rest []string) error {
		if len(rest) != 2 {
			return fmt.Errorf("rename needs <old> <new>")
		}
		if err := repo.Rename(rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed: %s → %s\n", rest[0], layout.SanitizeName(rest[1]))
		return nil
	})
}

func runCopy(args []string) error {
	return withRepo("copy", args, func(repo *repository.Repository, rest []string) error {
		if len(rest) < 1 || len(rest) > 2 {
			return fmt.Errorf("copy needs <name> [new]")
		}
		target := repo.SuggestName(rest[0])
		if len(rest) == 2 {
			target = rest[1]
		}
		if err := repo.Copy(rest[0], target); err != nil {
			return err
		}
		fmt.Printf("Copied: %s → %s\n", rest[0], layout.SanitizeName(target))
		return nil
	})
}

func runDelete(args []string) error {
	return withRepo("delete", args, func(repo *repository.Repository, rest []string) error {
		if len(rest) != 1 {
			return fmt.Errorf("delete needs a layout name")
		}
		if err := repo.Delete(rest[0]); err != nil {
			return err
		}
		current, _ := repo.Current()
		fmt.Printf("Deleted: %s (current: %s)\n", rest[0], current)
		return nil
	})
}

// runValidate checks a layout file without touching the database.
func runValidate(args []string) error {
	fs, g := newFlagSet("validate")
	var sanitize bool
	var output string
	fs.BoolVar(&sanitize, "sanitize", false, "Strip markup from text fields before checking")
	fs.StringVar(&output, "o", "", "Write the normalized layout here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("validate needs a layout file")
	}
	if _, err := g.load(); err != nil {
		return err
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read layout: %w", err)
	}
	l, err := layout.Parse(data, sanitize)
	if err != nil {
		return explain(err)
	}
	fmt.Printf("Valid: %d line(s) max, %d×%d setup\n", l.MaxLines, l.SetupWidth, l.SetupHeight)

	if output != "" {
		out, err := l.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, out, 0644); err != nil {
			return fmt.Errorf("write layout: %w", err)
		}
		fmt.Printf("Written: %s\n", output)
	}
	return nil
}

// ── Shopper ──

// sizeFlags are the display size options of compact and preview.
type sizeFlags struct {
	width, height int
	size          string
}

func (s *sizeFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&s.width, "w", 0, "Display width in pixels (default: setup width)")
	fs.IntVar(&s.height, "h", 0, "Display height in pixels (default: setup height)")
	fs.StringVar(&s.size, "size", "", "Named image size: full, shop_single, shop_catalog or shop_thumbnail")
}

// resolve picks explicit sizes first, then the named size of the setup
// image, then the setup size.
func (s *sizeFlags) resolve(l *layout.Layout, dir images.Dir) (int, int, error) {
	w, h := l.SetupWidth, l.SetupHeight
	if s.size != "" {
		fw, fh, err := images.Fit(w, h, s.size)
		if err != nil {
			return 0, 0, err
		}
		w, h = images.Dimensions(dir, l.SetupImage, s.size, fw, fh)
	}
	if s.width > 0 {
		w = s.width
	}
	if s.height > 0 {
		h = s.height
	}
	if w > layout.MaxImageSize || h > layout.MaxImageSize {
		return 0, 0, fmt.Errorf("display size %d×%d is larger than %d", w, h, layout.MaxImageSize)
	}
	return w, h, nil
}

func runCompact(args []string) error {
	fs, g := newFlagSet("compact")
	var sf sizeFlags
	var lines string
	sf.register(fs)
	fs.StringVar(&lines, "lines", "", "Only these line counts, e.g. 1,2")
	if err := fs.Parse(args); err != nil {
		return err
	}
	only, err := parseInts(lines)
	if err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, true)
	if err != nil {
		return err
	}
	defer closeDB()

	name, err := nameOrCurrent(repo, fs.Args())
	if err != nil {
		return err
	}
	l, err := repo.Load(name)
	if err != nil {
		return err
	}
	w, h, err := sf.resolve(l, images.Dir{Root: cfg.AssetsDir})
	if err != nil {
		return err
	}
	p := layout.Project(l, w, h)
	return printJSON(map[string]any{
		"width":    p.Width,
		"height":   p.Height,
		"variants": p.Variants(only...),
	})
}

func runPreview(args []string) error {
	fs, g := newFlagSet("preview")
	var (
		sf     sizeFlags
		text   string
		output string
		single bool
	)
	sf.register(fs)
	fs.StringVar(&text, "text", "", "Message to fit, lines separated by \\n")
	fs.StringVar(&output, "o", "preview.png", "Output PNG")
	fs.BoolVar(&single, "single", false, "Single-line input mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, true)
	if err != nil {
		return err
	}
	defer closeDB()

	name, err := nameOrCurrent(repo, fs.Args())
	if err != nil {
		return err
	}
	l, err := repo.Load(name)
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	w, h, err := sf.resolve(l, eng.images)
	if err != nil {
		return err
	}
	text = strings.ReplaceAll(text, `\n`, "\n")
	res := preview.ShopperScene(l, eng.fit, cfg.Family, text, w, h, !single)
	img, err := eng.renderer.Render(l, res.Scene)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := preview.SavePNG(img, output); err != nil {
		return err
	}

	fmt.Printf("Rendering layout: %s at %d×%d, %d line(s)\n", name, w, h, res.Lines)
	for _, msg := range res.Messages {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

// ── Bundles ──

func runExport(args []string) error {
	fs, g := newFlagSet("export")
	var output string
	fs.StringVar(&output, "o", "layouts.zip", "Output bundle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, true)
	if err != nil {
		return err
	}
	defer closeDB()

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	if err := repo.Export(f, fs.Args()...); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	fmt.Printf("Exported: %s\n", output)
	return nil
}

func runImport(args []string) error {
	fs, g := newFlagSet("import")
	var overwrite bool
	fs.BoolVar(&overwrite, "overwrite", false, "Replace layouts with the same name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("import needs a bundle file")
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	repo, closeDB, err := openRepo(cfg, true)
	if err != nil {
		return err
	}
	defer closeDB()

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	results, err := repo.Import(f, info.Size(), overwrite)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
			fmt.Fprintf(os.Stderr, "Skipped: %s: %v\n", res.Original, res.Err)
		case res.Name != res.Original:
			fmt.Printf("Imported: %s as %s\n", res.Original, res.Name)
		default:
			fmt.Printf("Imported: %s\n", res.Name)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d layout(s) not imported", failed, len(results))
	}
	return nil
}

// ── Server ──

func runServe(args []string) error {
	fs, g := newFlagSet("serve")
	var addr string
	fs.StringVar(&addr, "addr", "", "Listen address (default: from config, :8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	repo, closeDB, err := openRepo(cfg, true)
	if err != nil {
		return err
	}
	defer closeDB()
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	fmt.Printf("textslot API: http://localhost%s/api/layouts\n", cfg.Addr)
	return server.RunServe(cfg.Addr, server.Deps{
		Repo:     repo,
		Engine:   eng.fit,
		Measurer: eng.set.Measurer,
		Renderer: eng.renderer,
		Images:   eng.images,
		Family:   cfg.Family,
	})
}

// ── Helpers ──

func nameOrCurrent(repo *repository.Repository, rest []string) (string, error) {
	switch len(rest) {
	case 0:
		return repo.Current()
	case 1:
		return rest[0], nil
	default:
		return "", fmt.Errorf("expected one layout name, got %d", len(rest))
	}
}

// explain prints each validation problem and returns err.
func explain(err error) error {
	for _, p := range layout.Problems(err) {
		fmt.Fprintf(os.Stderr, "  %s\n", p)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("lines: %q is not a number", part)
		}
		out = append(out, n)
	}
	return out, nil
}
