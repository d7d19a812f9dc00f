// compact.go — Pipe/comma wire encoding of one line-count variant.
//
//	Y,X,Width,Align,MinFont,MaxFont,Attributes,Css|Y,X,...
package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	compactLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Pipe", Pattern: `\|`},
		{Name: "Comma", Pattern: `,`},
		{Name: "Field", Pattern: `[^,|]+`},
	})

	compactParser = participle.MustBuild[compactVariant](
		participle.Lexer(compactLexer),
	)
)

type compactVariant struct {
	Lines []*compactLine `parser:"@@ ( '|' @@ )*"`
}

type compactLine struct {
	Y          string `parser:"@Field ','"`
	X          string `parser:"@Field ','"`
	Width      string `parser:"@Field ','"`
	Align      string `parser:"@Field ','"`
	MinFont    string `parser:"@Field ','"`
	MaxFont    string `parser:"@Field ','"`
	Attributes string `parser:"@Field? ','"`
	Css        string `parser:"@Field?"`
}

// Variant is one line-count variant on the wire: {"l": 2, "f": "..."}.
type Variant struct {
	Lines  int    `json:"l"`
	Format string `json:"f"`
}

// EncodeCompact joins lines into the compact format. Attributes and Css must
// already be delimiter free; the validator guarantees that for stored
// layouts.
func EncodeCompact(lines []LineFormat) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strings.Join([]string{
			strconv.Itoa(l.Y),
			strconv.Itoa(l.X),
			strconv.Itoa(l.Width),
			l.Align.String(),
			strconv.Itoa(l.MinFont),
			strconv.Itoa(l.MaxFont),
			l.Attributes,
			l.Css,
		}, ",")
	}
	return strings.Join(parts, "|")
}

// ParseCompact decodes a compact variant. An empty string is zero lines.
func ParseCompact(s string) ([]LineFormat, error) {
	if s == "" {
		return nil, nil
	}
	v, err := compactParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("parse compact format: %w", err)
	}

	out := make([]LineFormat, 0, len(v.Lines))
	for i, cl := range v.Lines {
		lf, err := cl.format()
		if err != nil {
			return nil, fmt.Errorf("compact line %d: %w", i, err)
		}
		out = append(out, lf)
	}
	return out, nil
}

func (cl *compactLine) format() (LineFormat, error) {
	var (
		lf  LineFormat
		err error
	)
	ints := []struct {
		name string
		src  string
		dst  *int
	}{
		{"Y", cl.Y, &lf.Y},
		{"X", cl.X, &lf.X},
		{"Width", cl.Width, &lf.Width},
		{"MinFont", cl.MinFont, &lf.MinFont},
		{"MaxFont", cl.MaxFont, &lf.MaxFont},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(strings.TrimSpace(f.src)); err != nil {
			return lf, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	if lf.Align, err = ParseAlign(strings.TrimSpace(cl.Align)); err != nil {
		return lf, err
	}
	lf.Attributes = cl.Attributes
	lf.Css = cl.Css
	return lf, nil
}

// ParseVariants rebuilds a format table from wire variants. Each variant must
// carry exactly as many lines as it claims.
func ParseVariants(vs []Variant) (Formats, error) {
	out := make(Formats, len(vs))
	for _, v := range vs {
		lines, err := ParseCompact(v.Format)
		if err != nil {
			return nil, fmt.Errorf("variant %d: %w", v.Lines, err)
		}
		if v.Lines < 1 || len(lines) != v.Lines {
			return nil, fmt.Errorf("variant %d: has %d lines", v.Lines, len(lines))
		}
		out[v.Lines] = lines
	}
	return out, nil
}
