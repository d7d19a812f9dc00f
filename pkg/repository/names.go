package repository

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/xob0t/textslot/pkg/layout"
)

// SuggestName proposes a fresh name derived from name, for use as the default
// in copy and rename prompts. A " - copy" suffix is added once, then a
// trailing number is incremented until the name is free.
func (r *Repository) SuggestName(name string) string {
	names, _ := r.List()
	candidate := strings.TrimSpace(name)
	if !strings.Contains(strings.ToLower(candidate), "copy") {
		candidate += " - copy"
	}
	for indexOf(names, candidate) >= 0 || layout.IsReserved(candidate) {
		candidate = bumpNumber(candidate)
	}
	return candidate
}

// bumpNumber increments a trailing decimal number, or appends 1.
func bumpNumber(s string) string {
	i := len(s)
	for i > 0 && unicode.IsDigit(rune(s[i-1])) {
		i--
	}
	if i == len(s) {
		return s + "1"
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s + "1"
	}
	return s[:i] + strconv.Itoa(n+1)
}
