// lines.go — Adding and removing line-count variants while authoring.
package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrLineCount reports a requested line count outside [1, MaxLines].
var ErrLineCount = errors.New("line count out of range")

// GrowMaxLines adds variants up to m lines. Each new (k+1)-line variant
// copies the k-line variant and repeats its last line, moved down by
// NewLineOffset × MaxFont and kept at least half a MaxFont above the image
// bottom. The new largest variant becomes current.
func GrowMaxLines(l *Layout, m int) error {
	if m < 1 || m > MaxLines {
		return fmt.Errorf("%w: %d", ErrLineCount, m)
	}
	for k := l.MaxLines; k < m; k++ {
		prev := l.Formats[k]
		if len(prev) != k {
			return fmt.Errorf("grow to %d lines: variant %d has %d lines", m, k, len(prev))
		}
		next := make([]LineFormat, k+1)
		copy(next, prev)

		extra := prev[k-1]
		extra.Y += int(math.Floor(NewLineOffset * float64(extra.MaxFont)))
		bottom := float64(l.SetupHeight) - float64(extra.MaxFont)/2
		if float64(extra.Y) > bottom {
			extra.Y = int(math.Floor(bottom))
		}
		next[k] = extra
		l.Formats[k+1] = next
	}
	if m > l.MaxLines {
		l.MaxLines = m
		l.CurrentLines = m
	}
	return nil
}

// ShrinkMaxLines discards every variant above m lines. The discarded
// formatting is lost, so callers confirm with the user first.
func ShrinkMaxLines(l *Layout, m int) error {
	if m < 1 || m > MaxLines {
		return fmt.Errorf("%w: %d", ErrLineCount, m)
	}
	for k := l.MaxLines; k > m; k-- {
		delete(l.Formats, k)
	}
	if m < l.MaxLines {
		l.MaxLines = m
	}
	if l.CurrentLines > l.MaxLines {
		l.CurrentLines = l.MaxLines
	}
	return nil
}
