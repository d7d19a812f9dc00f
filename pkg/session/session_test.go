package session

import (
	"reflect"
	"testing"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/layout"
)

// halfRune measures every rune as half the font size.
var halfRune = fit.MeasureFunc(func(text, _ string, size int) float64 {
	return float64(len([]rune(text))) * 0.5 * float64(size)
})

func threeLine(t *testing.T) layout.Formats {
	t.Helper()
	l := layout.Default()
	if err := layout.GrowMaxLines(l, 3); err != nil {
		t.Fatalf("GrowMaxLines: %v", err)
	}
	return l.Formats
}

func newSession(t *testing.T, formats layout.Formats) *Session {
	t.Helper()
	return New(fit.New(halfRune, nil), formats, "Go")
}

func fonts(s *Session) []int {
	var out []int
	for _, b := range s.Boxes() {
		out = append(out, b.Font)
	}
	return out
}

func TestDisplayBalancesLines(t *testing.T) {
	s := newSession(t, threeLine(t))
	if s.LineCount() != 0 {
		t.Fatalf("initial line count: %d", s.LineCount())
	}
	flags := s.Display([]string{"abcd", "abcdefghijkl"})
	if flags != 0 {
		t.Errorf("flags: %v", flags)
	}
	if s.LineCount() != 2 {
		t.Fatalf("line count: %d", s.LineCount())
	}
	// 12 runes × 0.5 × 50 = 300, the box width.
	if got := fonts(s); !reflect.DeepEqual(got, []int{50, 50}) {
		t.Errorf("fonts: %v", got)
	}
}

func TestDisplayTooManyLines(t *testing.T) {
	s := newSession(t, threeLine(t))
	flags := s.DisplayText("a\nb\r\nc\rd\ne")
	if !flags.Has(fit.TooManyLines) {
		t.Error("expected TooManyLines")
	}
	if s.LineCount() != 3 {
		t.Errorf("line count: %d", s.LineCount())
	}
	if got := s.Text(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("text: %v", got)
	}

	// Back within range clears the warning.
	if flags := s.Display([]string{"a"}); flags != 0 {
		t.Errorf("flags after shrink: %v", flags)
	}
}

func TestDisplayClearsUnusedBoxes(t *testing.T) {
	s := newSession(t, threeLine(t))
	s.Display([]string{"a", "b", "c"})
	s.Display([]string{"only"})
	if s.LineCount() != 1 {
		t.Fatalf("line count: %d", s.LineCount())
	}
	for i, b := range s.boxes[1:] {
		if b.Text != "" {
			t.Errorf("box %d not cleared: %q", i+1, b.Text)
		}
	}
}

func TestLineCountChangeReseedsBoxes(t *testing.T) {
	formats := threeLine(t)
	s := newSession(t, formats)
	s.Display([]string{"x", "y"})
	for i, b := range s.Boxes() {
		want := formats[2][i]
		if b.Y != want.Y || b.Width != want.Width || b.MaxFont != want.MaxFont {
			t.Errorf("box %d: %+v, want %+v", i, b, want)
		}
	}
	if !s.SetLineCount(3) {
		t.Error("expected change")
	}
	if s.SetLineCount(3) {
		t.Error("same count reported a change")
	}
	assertTextFits(t, s)
	if got := s.Text(); !reflect.DeepEqual(got, []string{"x", "y", ""}) {
		t.Errorf("text after change: %v", got)
	}
}

// assertTextFits checks that every active box renders within its width.
func assertTextFits(t *testing.T, s *Session) {
	t.Helper()
	for i, b := range s.Boxes() {
		if b.Text == "" {
			continue
		}
		if w := halfRune(b.Text, b.Family, b.Font); w > float64(b.Width) {
			t.Errorf("box %d: %q at %d is %.0fpx in a %dpx box", i, b.Text, b.Font, w, b.Width)
		}
	}
}

// narrowing has a 100px box for one line and two 300px boxes for two.
func narrowing() layout.Formats {
	line := func(y, width int) layout.LineFormat {
		return layout.LineFormat{Y: y, X: 300, Width: width, Align: layout.AlignCenter, MinFont: 6, MaxFont: 60}
	}
	return layout.Formats{
		1: {line(300, 100)},
		2: {line(250, 300), line(350, 300)},
	}
}

func TestLineCountChangeRefitsAssignedText(t *testing.T) {
	s := newSession(t, narrowing())
	s.Display([]string{"abcdefgh", "ij"})
	if got := fonts(s); !reflect.DeepEqual(got, []int{60, 60}) {
		t.Fatalf("two-line fonts: %v", got)
	}

	// Narrower variant: 8 runes × 0.5 × 25 = 100, the new box width.
	if !s.SetLineCount(1) {
		t.Fatal("expected change")
	}
	assertTextFits(t, s)
	if b := s.Boxes()[0]; b.Font != 25 || b.Text != "abcdefgh" {
		t.Errorf("narrowed box: font %d text %q", b.Font, b.Text)
	}
	if p := s.Placements()[0]; p.Font != 25 || p.Width != 100 {
		t.Errorf("placement: %+v", p)
	}
	if s.Warnings() != 0 {
		t.Errorf("warnings: %v", s.Warnings())
	}

	// Back to the wider variant grows again.
	if !s.SetLineCount(2) {
		t.Fatal("expected change")
	}
	assertTextFits(t, s)
	if got := fonts(s); !reflect.DeepEqual(got, []int{60, 60}) {
		t.Errorf("widened fonts: %v", got)
	}
}

func TestLineCountChangeTruncatesAtMinFont(t *testing.T) {
	formats := narrowing()
	formats[1][0].MinFont = 40
	s := newSession(t, formats)
	s.Display([]string{"abcdefgh", "ij"})
	s.SetLineCount(1)
	assertTextFits(t, s)
	if b := s.Boxes()[0]; b.Font != 40 || b.Text != "abcde" {
		t.Errorf("box: font %d text %q", b.Font, b.Text)
	}
	if !s.Warnings().Has(fit.TooLong) {
		t.Errorf("warnings: %v", s.Warnings())
	}
}

func TestSetLineCountClampsLow(t *testing.T) {
	formats := threeLine(t)
	delete(formats, 1)
	s := newSession(t, formats)
	s.SetLineCount(0)
	if s.LineCount() != 2 {
		t.Errorf("got %d", s.LineCount())
	}
	if s.Warnings() != 0 {
		t.Errorf("low clamp raised %v", s.Warnings())
	}
}

func TestSubsetSkipsMissingVariant(t *testing.T) {
	formats := threeLine(t)
	delete(formats, 2)
	s := newSession(t, formats)
	s.Display([]string{"a", "b"})
	if s.LineCount() != 3 {
		t.Errorf("got %d", s.LineCount())
	}
}

func TestSingleVariantSelectedImmediately(t *testing.T) {
	formats := threeLine(t)
	s := newSession(t, layout.Formats{2: formats[2]})
	if s.LineCount() != 2 {
		t.Errorf("got %d", s.LineCount())
	}
	if len(s.Placements()) != 2 {
		t.Errorf("placements: %d", len(s.Placements()))
	}
}

func TestSetLine(t *testing.T) {
	s := newSession(t, layout.Default().Formats)
	if flags := s.SetLine(0, "hello"); flags != 0 {
		t.Errorf("flags: %v", flags)
	}
	if flags := s.SetLine(1, "extra"); !flags.Has(fit.TooManyLines) {
		t.Errorf("expected TooManyLines, got %v", flags)
	}
	if flags := s.SetLine(0, "this is far too long to fit in the box"); !flags.Has(fit.TooLong) {
		t.Errorf("expected TooLong, got %v", flags)
	}
}

func TestPlacementsUseBaselineOffset(t *testing.T) {
	s := newSession(t, layout.Default().Formats)
	s.Display([]string{"abc"})
	p := s.Placements()[0]
	// Fallback ratio 0.25 at font 60.
	if p.Y != 315 || p.Text != "abc" || p.Align != layout.AlignCenter {
		t.Errorf("placement: %+v", p)
	}
}

func TestMessages(t *testing.T) {
	l := layout.Default()
	l.SinglelineReformat = "too long"
	got := Messages(l, fit.TooLong|fit.TooManyLines, false)
	want := []string{"too long", layout.DefaultMessage(layout.MessageTooManyLines)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
	if got := Messages(l, fit.TooLong, true); got[0] != layout.DefaultMessage(layout.MessageMultiline) {
		t.Errorf("multiline: %v", got)
	}
	if got := Messages(l, 0, true); len(got) != 0 {
		t.Errorf("no flags: %v", got)
	}
}

func TestCatalogText(t *testing.T) {
	lines, ok := CatalogText("", "Blue Coffee Mug")
	if !ok || !reflect.DeepEqual(lines, []string{"Blue", "Coffee", "Mug"}) {
		t.Errorf("title: %v %v", lines, ok)
	}
	if _, ok := CatalogText("---", "x"); ok {
		t.Error("opt out not honoured")
	}
	lines, _ = CatalogText("Happy\r\nBirthday", "x")
	if !reflect.DeepEqual(lines, []string{"Happy", "Birthday"}) {
		t.Errorf("catalog: %v", lines)
	}
}

func TestCatalogLines(t *testing.T) {
	formats := threeLine(t)
	delete(formats, 2)
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "b", "c", "d"}, []string{"a", "b", "c"}},
		{[]string{"a", "b"}, []string{"a"}},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := CatalogLines(formats, tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%v: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProductMessage(t *testing.T) {
	if got := ProductMessage("Happy|Birthday"); !reflect.DeepEqual(got, []string{"Happy", "Birthday"}) {
		t.Errorf("got %v", got)
	}
	if ProductMessage("") != nil {
		t.Error("empty message has lines")
	}
}
