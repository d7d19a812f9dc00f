package editor

import (
	"errors"
	"strings"
	"testing"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/repository"
	"github.com/xob0t/textslot/pkg/store"
)

// twoLines is the default template grown to two lines: both centred at
// X 300 with width 300, fonts 45..60, at Y 300 and 366.
func twoLines(t *testing.T) *Session {
	t.Helper()
	l := layout.Default()
	if err := layout.GrowMaxLines(l, 2); err != nil {
		t.Fatalf("GrowMaxLines: %v", err)
	}
	return New("template", l, nil)
}

func apply(t *testing.T, s *Session, ops ...Op) {
	t.Helper()
	for _, o := range ops {
		if err := s.Apply(o); err != nil {
			t.Fatalf("Apply(%s): %v", Name(o), err)
		}
	}
}

func lines(s *Session) []layout.LineFormat {
	return s.Layout().Formats[s.CurrentLines()]
}

func TestNewRecomputesKeepSame(t *testing.T) {
	s := twoLines(t)
	if s.CurrentLines() != 2 {
		t.Fatalf("current: %d", s.CurrentLines())
	}
	flags := s.KeepSameFlags()
	if flags[FieldY] {
		t.Error("Y differs between lines and should not be kept the same")
	}
	for _, f := range []Field{FieldX, FieldAlign, FieldWidth, FieldMinFont, FieldMaxFont} {
		if !flags[f] {
			t.Errorf("%v should be kept the same", f)
		}
	}
	if s.Modified() {
		t.Error("new session reports modified")
	}
}

func TestSetValueKeepSame(t *testing.T) {
	s := twoLines(t)
	apply(t, s, SetValue{Line: 1, Field: FieldWidth, Value: 200})
	got := lines(s)
	if got[0].Width != 200 || got[1].Width != 200 {
		t.Fatalf("kept-same width: %d %d", got[0].Width, got[1].Width)
	}

	apply(t, s,
		KeepSame{Field: FieldWidth, On: false},
		SetValue{Line: 1, Field: FieldWidth, Value: 100},
	)
	got = lines(s)
	if got[0].Width != 200 || got[1].Width != 100 {
		t.Errorf("independent width: %d %d", got[0].Width, got[1].Width)
	}

	apply(t, s, SetValue{Line: 0, Field: FieldY, Value: 10.7})
	got = lines(s)
	if got[0].Y != 10 || got[1].Y != 366 {
		t.Errorf("Y: %d %d", got[0].Y, got[1].Y)
	}
	if !s.Modified() || s.LastLine() != 0 {
		t.Errorf("modified %v, last line %d", s.Modified(), s.LastLine())
	}
}

func TestKeepSameCopiesLastLine(t *testing.T) {
	s := twoLines(t)
	apply(t, s,
		KeepSame{Field: FieldX, On: false},
		SetValue{Line: 1, Field: FieldX, Value: 120},
		KeepSame{Field: FieldX, On: true},
	)
	got := lines(s)
	if got[0].X != 120 || got[1].X != 120 {
		t.Errorf("X after keep same: %d %d", got[0].X, got[1].X)
	}
	if err := s.Apply(KeepSame{Field: FieldY, On: true}); !errors.Is(err, ErrBadOp) {
		t.Errorf("Y has no keep-same toggle: %v", err)
	}
}

func TestLimits(t *testing.T) {
	s := twoLines(t)
	apply(t, s,
		SetValue{Line: 0, Field: FieldX, Value: 5000},
		SetValue{Line: 0, Field: FieldY, Value: -4},
		SetValue{Line: 0, Field: FieldMaxFont, Value: 1000},
		SetValue{Line: 0, Field: FieldMinFont, Value: 1},
	)
	got := lines(s)[0]
	if got.X != 600 || got.Y != 0 {
		t.Errorf("position: %d,%d", got.X, got.Y)
	}
	if got.MaxFont != 300 || got.MinFont != layout.MinFontSize {
		t.Errorf("fonts: %d..%d", got.MinFont, got.MaxFont)
	}

	apply(t, s,
		SetValue{Line: 0, Field: FieldMaxFont, Value: 50},
		SetValue{Line: 0, Field: FieldMinFont, Value: 80},
	)
	got = lines(s)[0]
	if got.MinFont != 50 {
		t.Errorf("MinFont above MaxFont: %d", got.MinFont)
	}
	apply(t, s, SetValue{Line: 0, Field: FieldMaxFont, Value: 20})
	if got := lines(s)[0]; got.MaxFont != 50 {
		t.Errorf("MaxFont below MinFont: %d", got.MaxFont)
	}

	if err := s.Apply(SetValue{Line: 2, Field: FieldX, Value: 1}); !errors.Is(err, ErrBadOp) {
		t.Errorf("line out of range: %v", err)
	}
}

func TestSetAlignKeepsTextInPlace(t *testing.T) {
	s := twoLines(t)
	apply(t, s, SetAlign{Line: 0, Align: layout.AlignLeft})
	for i, lf := range lines(s) {
		if lf.Align != layout.AlignLeft || lf.X != 150 {
			t.Errorf("line %d: align %v X %d", i, lf.Align, lf.X)
		}
	}
	apply(t, s, SetAlign{Line: 0, Align: layout.AlignRight})
	if lf := lines(s)[0]; lf.X != 450 {
		t.Errorf("right aligned X: %d", lf.X)
	}
	if err := s.Apply(SetAlign{Line: 0, Align: 'Q'}); !errors.Is(err, ErrBadOp) {
		t.Errorf("bad align: %v", err)
	}
}

func TestMoveAndResizeEnd(t *testing.T) {
	s := twoLines(t)
	apply(t, s, Move{Line: 0, DX: 10.5, DY: 5.5})

	l := s.Layout().Formats[2]
	if l[0].X != 310 || l[0].Y != 305 {
		t.Errorf("source line: %d,%d", l[0].X, l[0].Y)
	}
	if l[1].X != 310 || l[1].Y != 366 {
		t.Errorf("other line moves X only: %d,%d", l[1].X, l[1].Y)
	}

	apply(t, s, Move{Line: 0, DX: 0.6}, ResizeEnd{Line: 0})
	if got := lines(s)[0].X; got != 311 {
		t.Errorf("X after drag: %d", got)
	}
	if ln := s.lines[0]; ln.X != 311 || ln.Y != 305 {
		t.Errorf("ResizeEnd should floor: %v,%v", ln.X, ln.Y)
	}
}

func TestResize(t *testing.T) {
	s := twoLines(t)
	apply(t, s,
		Resize{Line: 0, Left: -10, Right: 10, Width: 20, Height: 5},
		ResizeEnd{Line: 0},
	)
	for i, lf := range lines(s) {
		if lf.X != 300 || lf.Width != 320 || lf.MaxFont != 70 || lf.MinFont != 45 {
			t.Errorf("line %d: X %d width %d fonts %d..%d", i, lf.X, lf.Width, lf.MinFont, lf.MaxFont)
		}
	}

	apply(t, s,
		KeepSame{Field: FieldX, On: false},
		KeepSame{Field: FieldWidth, On: false},
		KeepSame{Field: FieldMaxFont, On: false},
		SetAlign{Line: 1, Align: layout.AlignLeft},
		Resize{Line: 1, Left: -20, Width: 20},
		ResizeEnd{Line: 1},
	)
	got := lines(s)
	if got[1].X != 120 || got[1].Width != 340 {
		t.Errorf("left edge drag: X %d width %d", got[1].X, got[1].Width)
	}
	if got[0].Width != 320 {
		t.Errorf("unsynced line changed: width %d", got[0].Width)
	}
}

func TestResizeSizingMinFont(t *testing.T) {
	s := twoLines(t)
	apply(t, s,
		SetSizing{Font: FieldMinFont},
		Resize{Line: 0, Height: 10},
		ResizeEnd{Line: 0},
	)
	lf := lines(s)[0]
	if lf.MinFont != 60 {
		t.Errorf("MinFont after drag: %d", lf.MinFont)
	}
	if err := s.Apply(SetSizing{Font: FieldX}); !errors.Is(err, ErrBadOp) {
		t.Errorf("bad sizing: %v", err)
	}
}

func TestCurrentLinesAndMaxLines(t *testing.T) {
	s := twoLines(t)
	apply(t, s, SetValue{Line: 0, Field: FieldY, Value: 200}, SetCurrentLines{Lines: 1})
	if s.CurrentLines() != 1 || len(s.lines) != 1 {
		t.Fatalf("switch variant: %d lines", len(s.lines))
	}
	if got := s.Layout().Formats[2][0].Y; got != 200 {
		t.Errorf("edits of the left variant were lost: Y %d", got)
	}
	if err := s.Apply(SetCurrentLines{Lines: 5}); !errors.Is(err, layout.ErrNoFormat) {
		t.Errorf("missing variant: %v", err)
	}

	if err := s.ChangeMaxLines(1, false); !errors.Is(err, ErrConfirmRequired) {
		t.Fatalf("shrink without confirm: %v", err)
	}
	apply(t, s, SetMaxLines{Lines: 3})
	if s.CurrentLines() != 3 || s.Layout().MaxLines != 3 {
		t.Errorf("grow: current %d", s.CurrentLines())
	}
	apply(t, s, SetMaxLines{Lines: 1, Confirmed: true})
	l := s.Layout()
	if l.MaxLines != 1 || s.CurrentLines() != 1 || len(l.Formats) != 1 {
		t.Errorf("shrink: max %d current %d variants %d", l.MaxLines, s.CurrentLines(), len(l.Formats))
	}
}

func TestMessagesAndColors(t *testing.T) {
	s := twoLines(t)
	apply(t, s,
		SetMessage{Kind: layout.MessageTooManyLines, Text: "Too many"},
		SetColor{Kind: layout.ColorInk, Color: 0x112233},
	)
	l := s.Layout()
	if l.NumberOfLines != "Too many" || l.InkColor != 0x112233 {
		t.Errorf("got %q %v", l.NumberOfLines, l.InkColor.Hex())
	}
	if err := s.Apply(SetColor{Kind: layout.ColorInk, Color: 0x1000000}); !errors.Is(err, ErrBadOp) {
		t.Errorf("color out of range: %v", err)
	}
}

type sizeResolver struct{ w, h int }

func (r sizeResolver) Resolve(id int, _ string) (images.Image, error) {
	return images.Image{ID: id, Width: r.w, Height: r.h}, nil
}

func TestSetupImageReclamps(t *testing.T) {
	l := layout.Default()
	s := New("template", l, sizeResolver{200, 100})
	apply(t, s, SetImage{Kind: ImageSetup, ID: 4})
	got := s.Layout()
	if got.SetupImage != 4 || got.SetupWidth != 200 || got.SetupHeight != 100 {
		t.Fatalf("setup: %d %d×%d", got.SetupImage, got.SetupWidth, got.SetupHeight)
	}
	lf := got.Formats[1][0]
	if lf.X != 200 || lf.Y != 100 || lf.Width != 200 || lf.MaxFont != 50 || lf.MinFont != 45 {
		t.Errorf("re-clamped line: %+v", lf)
	}
	if _, err := layout.Check(got, false); err != nil {
		t.Errorf("re-clamped layout invalid: %v", err)
	}
}

func TestSaveAndRevert(t *testing.T) {
	repo := repository.New(store.NewMemory(), "test")
	if err := repo.Install(false); err != nil {
		t.Fatal(err)
	}
	s, err := Load(repo, "template", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	apply(t, s, Move{Line: 0, DX: 20.5}, ResizeEnd{Line: 0})
	if err := s.Save(repo); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Modified() {
		t.Error("saved session still modified")
	}
	stored, _ := repo.Load("template")
	if stored.Formats[1][0].X != 320 {
		t.Errorf("stored X: %d", stored.Formats[1][0].X)
	}

	apply(t, s, SetValue{Line: 0, Field: FieldX, Value: 10})
	if err := s.Revert(repo); err != nil {
		t.Fatal(err)
	}
	if got := lines(s)[0].X; got != 320 || s.Modified() {
		t.Errorf("revert: X %d modified %v", got, s.Modified())
	}

	orphan := New("missing", s.Layout(), nil)
	apply(t, orphan, SetValue{Line: 0, Field: FieldX, Value: 42})
	if err := orphan.Save(repo); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("save missing: %v", err)
	}
	if !orphan.Modified() || lines(orphan)[0].X != 42 {
		t.Error("failed save changed the session")
	}
}

func TestOpJSON(t *testing.T) {
	data, err := EncodeOp(Move{Line: 1, DX: 2.5, DY: -1})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"op":"Move"`) {
		t.Errorf("encoded: %s", data)
	}
	o, err := DecodeOp(data)
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := o.(Move); !ok || m != (Move{Line: 1, DX: 2.5, DY: -1}) {
		t.Errorf("decoded: %#v", o)
	}

	o, err = DecodeOp([]byte(`{"op":"SetValue","line":0,"field":"MaxFont","value":40}`))
	if err != nil {
		t.Fatal(err)
	}
	if v := o.(SetValue); v.Field != FieldMaxFont || v.Value != 40 {
		t.Errorf("decoded: %#v", v)
	}

	for _, bad := range []string{
		`{"op":"Explode"}`,
		`{"op":"SetValue","field":"Colour"}`,
		`{"op":"SetAlign","align":"Z"}`,
		`not json`,
	} {
		if _, err := DecodeOp([]byte(bad)); !errors.Is(err, ErrBadOp) {
			t.Errorf("%s: %v", bad, err)
		}
	}
}

func TestSampleTextAndGuides(t *testing.T) {
	m := fit.MeasureFunc(func(text, _ string, size int) float64 {
		return float64(len(text)*size) / 2
	})
	if got := SampleText(m, "", 20, 55); got != "XyXyX" {
		t.Errorf("sample: %q", got)
	}
	if got := SampleText(m, "", 20, 5); got != "X" {
		t.Errorf("narrow sample: %q", got)
	}

	s := twoLines(t)
	g := s.Guides(fit.NewMetrics(nil), "Go")
	if len(g) != 2 {
		t.Fatalf("guides: %d", len(g))
	}
	if g[0].X != 150 || g[0].Width != 300 || g[0].Height != 60 || g[0].Y != 270 {
		t.Errorf("guide: %+v", g[0])
	}
	if !g[0].Active || g[1].Active {
		t.Error("line 0 should be the active guide")
	}

	samples := s.Samples(fit.New(m, nil), m, "Go")
	if samples[1].Font != 60 || samples[1].Text == "" {
		t.Errorf("sample placement: %+v", samples[1])
	}
}
