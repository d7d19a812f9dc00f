package layout

import (
	"reflect"
	"testing"
)

func TestCompactRoundTrip(t *testing.T) {
	lines := []LineFormat{
		{Y: 150, X: 150, Width: 150, Align: AlignCenter, MinFont: 22, MaxFont: 30},
		{Y: 183, X: 10, Width: 280, Align: AlignLeft, MinFont: 22, MaxFont: 30, Attributes: "data-x=1", Css: "font-weight: bold"},
		{Y: 216, X: 290, Width: 280, Align: AlignRight, MinFont: 6, MaxFont: 6, Css: "fill: red"},
	}

	s := EncodeCompact(lines)
	want := "150,150,150,C,22,30,,|183,10,280,L,22,30,data-x=1,font-weight: bold|216,290,280,R,6,6,,fill: red"
	if s != want {
		t.Fatalf("EncodeCompact:\n got %q\nwant %q", s, want)
	}

	got, err := ParseCompact(s)
	if err != nil {
		t.Fatalf("ParseCompact: %v", err)
	}
	if !reflect.DeepEqual(got, lines) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, lines)
	}
}

func TestParseCompactEmpty(t *testing.T) {
	got, err := ParseCompact("")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestParseCompactErrors(t *testing.T) {
	for _, s := range []string{
		"1,2,3,C,4,5",         // too few fields
		"a,2,3,C,4,5,,",       // not a number
		"1,2,3,Q,4,5,,",       // bad align
		"1,2,3,C,4,5,,|",      // dangling line
		"1,2,3,C,4,5,,,extra", // too many fields
	} {
		if _, err := ParseCompact(s); err == nil {
			t.Errorf("ParseCompact(%q): expected error", s)
		}
	}
}

func TestParseVariants(t *testing.T) {
	l := twoLineLayout()
	p := Project(l, l.SetupWidth, l.SetupHeight)

	got, err := ParseVariants(p.Variants())
	if err != nil {
		t.Fatalf("ParseVariants: %v", err)
	}
	if !reflect.DeepEqual(got, l.Formats) {
		t.Errorf("variants mismatch:\n got %+v\nwant %+v", got, l.Formats)
	}

	only := p.Variants(2)
	if len(only) != 1 || only[0].Lines != 2 {
		t.Fatalf("expected only the 2-line variant, got %+v", only)
	}

	if _, err := ParseVariants([]Variant{{Lines: 2, Format: p.Compact(1)}}); err == nil {
		t.Error("expected error for a variant with the wrong line count")
	}
}
