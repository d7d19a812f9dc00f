// validator.go — Structural and range validation of layout records.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidLayout is the single coarse failure every validation problem
// reports through. Match it with errors.Is.
var ErrInvalidLayout = errors.New("invalid layout format")

// Problem is one field-level finding. Path uses dots and brackets, e.g.
// "Formats.Lines2[1].MaxFont".
type Problem struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (p Problem) String() string { return p.Path + ": " + p.Reason }

// ValidationError is returned for any malformed or out-of-range record. Its
// message is always the coarse "invalid layout format"; Problems carries the
// detail for callers that want it.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string { return ErrInvalidLayout.Error() }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidLayout }

// Detail joins every problem on one line each.
func (e *ValidationError) Detail() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return strings.Join(parts, "\n")
}

// Problems extracts field-level findings from err, if it carries any.
func Problems(err error) []Problem {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Problems
	}
	return nil
}

var recordKeys = []string{
	"SetupImage", "OverlayImage", "SetupWidth", "SetupHeight", "MaxLines", "CurrentLines",
	"MultilineReformat", "NumberOfLines", "SinglelineReformat",
	"InkColor", "ActiveMouseColor", "InactiveMouseColor", "Formats",
}

var lineKeys = []string{"Y", "X", "Width", "Align", "MinFont", "MaxFont", "Attributes", "Css"}

// Validate migrates rec, checks it and returns the typed layout. With
// sanitize set, free text is cleaned and delimiters are removed from the
// pass-through fields before the final delimiter check. rec is never
// modified, and no layout is returned unless every check passes.
func Validate(rec Record, sanitize bool) (*Layout, error) {
	if rec == nil {
		return nil, &ValidationError{Problems: []Problem{{Path: "$", Reason: "not an object"}}}
	}
	v := &validator{sanitize: sanitize}
	l := v.layout(Migrate(rec))
	if len(v.problems) > 0 {
		return nil, &ValidationError{Problems: v.problems}
	}
	return l, nil
}

// Parse decodes stored JSON and validates it.
func Parse(data []byte, sanitize bool) (*Layout, error) {
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, &ValidationError{Problems: []Problem{{Path: "$", Reason: err.Error()}}}
	}
	return Validate(rec, sanitize)
}

// Check round-trips l through its record form and validates it.
func Check(l *Layout, sanitize bool) (*Layout, error) {
	rec, err := l.Record()
	if err != nil {
		return nil, &ValidationError{Problems: []Problem{{Path: "$", Reason: err.Error()}}}
	}
	return Validate(rec, sanitize)
}

type validator struct {
	sanitize bool
	problems []Problem
}

func (v *validator) fail(path, format string, args ...any) {
	v.problems = append(v.problems, Problem{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) layout(rec Record) *Layout {
	v.exactKeys("", rec, recordKeys)

	l := &Layout{}
	l.SetupImage = v.intIn("SetupImage", rec["SetupImage"], math.MinInt, math.MaxInt)
	l.OverlayImage = v.intIn("OverlayImage", rec["OverlayImage"], math.MinInt, math.MaxInt)
	l.SetupWidth = v.intIn("SetupWidth", rec["SetupWidth"], MinImageSize, MaxImageSize)
	l.SetupHeight = v.intIn("SetupHeight", rec["SetupHeight"], MinImageSize, MaxImageSize)
	l.MaxLines = v.intIn("MaxLines", rec["MaxLines"], 1, MaxLines)
	l.CurrentLines = v.intIn("CurrentLines", rec["CurrentLines"], 1, max(l.MaxLines, 1))

	l.MultilineReformat = v.message("MultilineReformat", rec["MultilineReformat"])
	l.NumberOfLines = v.message("NumberOfLines", rec["NumberOfLines"])
	l.SinglelineReformat = v.message("SinglelineReformat", rec["SinglelineReformat"])

	l.InkColor = Color(v.intIn("InkColor", rec["InkColor"], 0, int(MaxColor)))
	l.ActiveMouseColor = Color(v.intIn("ActiveMouseColor", rec["ActiveMouseColor"], 0, int(MaxColor)))
	l.InactiveMouseColor = Color(v.intIn("InactiveMouseColor", rec["InactiveMouseColor"], 0, int(MaxColor)))

	formats, ok := rec["Formats"].(map[string]any)
	if !ok {
		v.fail("Formats", "not an object")
		return l
	}
	if l.MaxLines < 1 {
		// Already reported; the variant set cannot be checked without it.
		return l
	}

	want := make([]string, l.MaxLines)
	for n := 1; n <= l.MaxLines; n++ {
		want[n-1] = FormatKey(n)
	}
	v.exactKeys("Formats", formats, want)

	l.Formats = make(Formats, l.MaxLines)
	fontLimit := l.MaxFontLimit()
	for n := 1; n <= l.MaxLines; n++ {
		key := FormatKey(n)
		raw, ok := formats[key]
		if !ok {
			continue
		}
		l.Formats[n] = v.variant("Formats."+key, raw, n, fontLimit)
	}
	return l
}

func (v *validator) variant(path string, raw any, n, fontLimit int) []LineFormat {
	lines, ok := raw.([]any)
	if !ok {
		v.fail(path, "not an array")
		return nil
	}
	if len(lines) != n {
		v.fail(path, "has %d lines, want %d", len(lines), n)
	}
	out := make([]LineFormat, 0, len(lines))
	for i, e := range lines {
		out = append(out, v.line(fmt.Sprintf("%s[%d]", path, i), e, fontLimit))
	}
	return out
}

func (v *validator) line(path string, raw any, fontLimit int) LineFormat {
	m, ok := raw.(map[string]any)
	if !ok {
		v.fail(path, "not an object")
		return LineFormat{}
	}
	v.exactKeys(path, m, lineKeys)

	var lf LineFormat
	lf.Y = v.intIn(path+".Y", m["Y"], 0, MaxImageSize)
	lf.X = v.intIn(path+".X", m["X"], 0, MaxImageSize)
	lf.Width = v.intIn(path+".Width", m["Width"], 0, MaxImageSize)
	lf.MinFont = v.intIn(path+".MinFont", m["MinFont"], MinFontSize, fontLimit)
	lf.MaxFont = v.intIn(path+".MaxFont", m["MaxFont"], lf.MinFont, fontLimit)

	if s, ok := m["Align"].(string); !ok {
		v.fail(path+".Align", "not a string")
	} else if a, err := ParseAlign(s); err != nil {
		v.fail(path+".Align", "must be one of L, C, R")
	} else {
		lf.Align = a
	}

	lf.Attributes = v.passThrough(path+".Attributes", m["Attributes"])
	lf.Css = v.passThrough(path+".Css", m["Css"])
	return lf
}

func (v *validator) message(path string, raw any) string {
	s, ok := raw.(string)
	if !ok {
		v.fail(path, "not a string")
		return ""
	}
	if v.sanitize {
		s = SanitizeMultiline(s)
	}
	return s
}

func (v *validator) passThrough(path string, raw any) string {
	s, ok := raw.(string)
	if !ok {
		v.fail(path, "not a string")
		return ""
	}
	if v.sanitize {
		s = StripDelimiters(SanitizeLine(s))
	}
	if HasDelimiter(s) {
		v.fail(path, "contains a compact format delimiter")
	}
	return s
}

func (v *validator) intIn(path string, raw any, lo, hi int) int {
	n, ok := toInt(raw)
	if !ok {
		if raw == nil {
			v.fail(path, "missing")
		} else {
			v.fail(path, "not an integer")
		}
		return 0
	}
	if n < lo || n > hi {
		v.fail(path, "%d out of range [%d, %d]", n, lo, hi)
	}
	return n
}

func (v *validator) exactKeys(path string, m map[string]any, want []string) {
	wanted := make(map[string]struct{}, len(want))
	for _, k := range want {
		wanted[k] = struct{}{}
		if _, ok := m[k]; !ok {
			v.fail(join(path, k), "missing")
		}
	}
	var extra []string
	for k := range m {
		if _, ok := wanted[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		v.fail(join(path, k), "unexpected key")
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// toInt accepts only integral numbers. Strings, booleans and fractional
// values are rejected.
func toInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
