package measure

import (
	"math"
	"testing"

	"github.com/xob0t/textslot/pkg/fit"
)

func backends(t *testing.T) map[string]fit.Measurer {
	t.Helper()
	out := make(map[string]fit.Measurer)
	for _, name := range []string{BackendOpenType, BackendCanvas, BackendShaper} {
		set, err := New(name)
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		out[name] = set.Measurer
	}
	return out
}

func TestMeasureGrowsWithSizeAndText(t *testing.T) {
	for name, m := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if w := m.Measure("", "Go", 40); w != 0 {
				t.Errorf("empty: got %v", w)
			}
			small := m.Measure("Hello World", "Go", 20)
			large := m.Measure("Hello World", "Go", 40)
			if small <= 0 || large <= small {
				t.Errorf("size: 20→%v 40→%v", small, large)
			}
			if longer := m.Measure("Hello World!!", "Go", 20); longer <= small {
				t.Errorf("length: got %v ≤ %v", longer, small)
			}
			// Roughly proportional to size.
			if r := large / small; math.Abs(r-2) > 0.2 {
				t.Errorf("40/20 ratio: %v", r)
			}
		})
	}
}

func TestBackendsAgree(t *testing.T) {
	ms := backends(t)
	ref := ms[BackendOpenType].Measure("Personalised", "Go", 48)
	for name, m := range ms {
		w := m.Measure("Personalised", "Go", 48)
		if math.Abs(w-ref)/ref > 0.1 {
			t.Errorf("%s: %v, opentype %v", name, w, ref)
		}
	}
}

func TestUnknownFamilyFallsBack(t *testing.T) {
	o, err := NewOpenType()
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()
	if a, b := o.Measure("abc", "Nope", 30), o.Measure("abc", DefaultFamily, 30); a != b {
		t.Errorf("got %v, want %v", a, b)
	}
}

func TestMonoIsFixedWidth(t *testing.T) {
	o, _ := NewOpenType()
	defer o.Close()
	if a, b := o.Measure("iiii", "Go Mono", 30), o.Measure("WWWW", "Go Mono", 30); a != b {
		t.Errorf("iiii=%v WWWW=%v", a, b)
	}
}

func TestInkCalibration(t *testing.T) {
	o, _ := NewOpenType()
	defer o.Close()
	ink, err := o.Ink(fit.CalibrationText, "Go", 100)
	if err != nil {
		t.Fatal(err)
	}
	if ink.Ascent <= ink.Descent || ink.Descent <= 0 {
		t.Errorf("ink: %+v", ink)
	}
	r := fit.NewMetrics(o).Ratios("Go")
	if r == fit.FallbackRatios || r.YOffset <= 0 || r.Size <= 0 {
		t.Errorf("ratios: %+v", r)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("gpu"); err == nil {
		t.Error("expected error")
	}
}

func TestFixed(t *testing.T) {
	if w := Fixed(0.5).Measure("héllo", "", 10); w != 25 {
		t.Errorf("got %v", w)
	}
}
