// defaults.go — Built-in template layout, overflow wording and reserved names.
package layout

import "golang.org/x/text/cases"

// DefaultName is the layout installed on first run.
const DefaultName = "template"

// Default returns the built-in single-line template: one centred box half the
// width of a 600×600 image.
func Default() *Layout {
	half := DefaultImageSize / 2
	return &Layout{
		SetupWidth:         DefaultImageSize,
		SetupHeight:        DefaultImageSize,
		MaxLines:           1,
		CurrentLines:       1,
		InkColor:           DefaultInkColor,
		ActiveMouseColor:   DefaultActiveColor,
		InactiveMouseColor: DefaultInactiveColor,
		Formats: Formats{
			1: {{Y: half, X: half, Width: half, Align: AlignCenter, MinFont: 45, MaxFont: 60}},
		},
	}
}

// DefaultMessage is the wording shown when a layout's overflow message is
// empty.
func DefaultMessage(kind MessageKind) string {
	switch kind {
	case MessageMultiline:
		return "Please continue with message. Press [Enter] for new lines - type size will adjust. Tip: Edit line breaks to get desired layout."
	case MessageTooManyLines:
		return "Sorry, that's too many lines."
	case MessageSingleline:
		return "Text is too long to fit. Please check length of text."
	default:
		return ""
	}
}

// Reserved store keys. None of these can ever name a layout.
var Reserved = []string{"settings", "ver", "db_ver", "layouts"}

// FoldName returns the case-insensitive comparison key for a layout name.
// A Caser carries state, so each call builds its own.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// IsReserved reports whether name collides with a reserved key, ignoring case.
func IsReserved(name string) bool {
	key := FoldName(name)
	for _, r := range Reserved {
		if key == r {
			return true
		}
	}
	return false
}
