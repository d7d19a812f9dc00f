// scene.go — Builds scenes for the shopper and editor previews.
package preview

import (
	"image"

	"github.com/xob0t/textslot/pkg/editor"
	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/session"
)

// Shopper is the result of previewing a shopper's message.
type Shopper struct {
	Scene    Scene
	Lines    int       // variant used
	Flags    fit.Flags // overflow warnings
	Messages []string  // wording for Flags
}

// ShopperScene fits text into l projected onto a width×height image, the
// way the product page shows it. multiline selects the truncation wording.
func ShopperScene(l *layout.Layout, e *fit.Engine, family, text string, width, height int, multiline bool) Shopper {
	p := layout.Project(l, width, height)
	s := session.New(e, p.Formats, family)
	var flags fit.Flags
	if multiline {
		flags = s.DisplayText(text)
	} else {
		s.SetLineCount(1)
		flags = s.SetLine(0, text)
	}
	return Shopper{
		Scene: Scene{
			Width:      p.Width,
			Height:     p.Height,
			Placements: s.Placements(),
		},
		Lines:    s.LineCount(),
		Flags:    flags,
		Messages: session.Messages(l, flags, multiline),
	}
}

// EditorScene draws sample text in every line of the variant being edited,
// with a frame around each box. It is drawn at setup size.
func EditorScene(ed *editor.Session, e *fit.Engine, m fit.Measurer, family string) Scene {
	l := ed.Layout()
	sc := Scene{
		Width:      l.SetupWidth,
		Height:     l.SetupHeight,
		Placements: ed.Samples(e, m, family),
	}
	for _, g := range ed.Guides(e.Metrics(), family) {
		x0, y0, x1, y1 := g.Rect()
		sc.Frames = append(sc.Frames, Frame{Rect: image.Rect(x0, y0, x1, y1), Active: g.Active})
	}
	return sc
}
