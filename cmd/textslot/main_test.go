package main

import (
	"errors"
	"slices"
	"testing"

	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/repository"
	"github.com/xob0t/textslot/pkg/store"
)

func TestSizeFlagsResolve(t *testing.T) {
	l := layout.Default()
	dir := images.Dir{Root: t.TempDir()}

	tests := []struct {
		name  string
		flags sizeFlags
		w, h  int
	}{
		{"setup size", sizeFlags{}, 600, 600},
		{"named size", sizeFlags{size: images.SizeCatalog}, 300, 300},
		{"explicit beats named", sizeFlags{size: images.SizeCatalog, width: 400}, 400, 300},
		{"explicit", sizeFlags{width: 200, height: 100}, 200, 100},
	}
	for _, tt := range tests {
		w, h, err := tt.flags.resolve(l, dir)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if w != tt.w || h != tt.h {
			t.Errorf("%s: got %d×%d, want %d×%d", tt.name, w, h, tt.w, tt.h)
		}
	}

	if _, _, err := (&sizeFlags{size: "poster"}).resolve(l, dir); !errors.Is(err, images.ErrUnknownSize) {
		t.Errorf("unknown size: got %v", err)
	}
	if _, _, err := (&sizeFlags{width: layout.MaxImageSize + 1}).resolve(l, dir); err == nil {
		t.Error("oversized display accepted")
	}
}

func TestParseInts(t *testing.T) {
	got, err := parseInts("1, 3,2")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{1, 3, 2}) {
		t.Errorf("got %v", got)
	}
	if got, _ := parseInts(""); got != nil {
		t.Errorf("empty: got %v", got)
	}
	if _, err := parseInts("1,x"); err == nil {
		t.Error("bad number accepted")
	}
}

func TestNameOrCurrent(t *testing.T) {
	repo := repository.New(store.NewMemory(), "test")
	if err := repo.Install(false); err != nil {
		t.Fatal(err)
	}

	name, err := nameOrCurrent(repo, nil)
	if err != nil || name != layout.DefaultName {
		t.Errorf("current: %q, %v", name, err)
	}
	if name, _ := nameOrCurrent(repo, []string{"Mugs"}); name != "Mugs" {
		t.Errorf("explicit: %q", name)
	}
	if _, err := nameOrCurrent(repo, []string{"a", "b"}); err == nil {
		t.Error("two names accepted")
	}
}
