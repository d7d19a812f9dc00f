// sanitize.go — Free-text cleaning for messages, names and pass-through fields.
package layout

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reWhitespace = regexp.MustCompile(`[\r\n\t ]+`)
	reSpaces     = regexp.MustCompile(` +`)
	reOctet      = regexp.MustCompile(`(?i)%[a-f0-9]{2}`)
)

// Delimiters are the compact wire format separators.
const Delimiters = ",|"

// SanitizeLine cleans single-line text: markup stripped, whitespace runs
// collapsed to one space, percent-encoded octets removed.
func SanitizeLine(s string) string { return sanitizeText(s, false) }

// SanitizeMultiline is SanitizeLine but keeps line breaks.
func SanitizeMultiline(s string) string { return sanitizeText(s, true) }

// SanitizeName cleans a layout name.
func SanitizeName(s string) string { return sanitizeText(s, false) }

// StripDelimiters replaces each compact-format delimiter with a space.
func StripDelimiters(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(Delimiters, r) {
			return ' '
		}
		return r
	}, s)
}

// HasDelimiter reports whether s contains a compact-format delimiter.
func HasDelimiter(s string) bool {
	return strings.ContainsAny(s, Delimiters)
}

func sanitizeText(s string, keepNewlines bool) string {
	s, _, err := transform.String(transform.Chain(runes.ReplaceIllFormed(), norm.NFC), s)
	if err != nil {
		return ""
	}

	if strings.Contains(s, "<") {
		s = stripTags(s)
	}

	if !keepNewlines {
		s = reWhitespace.ReplaceAllString(s, " ")
	}
	s = strings.TrimSpace(s)

	found := false
	for reOctet.MatchString(s) {
		s = reOctet.ReplaceAllString(s, "")
		found = true
	}
	if found {
		s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	}
	return s
}

// stripTags keeps only character data, exactly as written: entities are not
// decoded, so escaped markup never turns into live tags. Script and style
// bodies are dropped along with their tags.
func stripTags(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read.
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Raw())
			}
		}
	}
}

func isRawTag(name []byte) bool {
	n := string(name)
	return n == "script" || n == "style"
}
