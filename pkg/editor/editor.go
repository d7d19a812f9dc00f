// Package editor is the layout authoring session: one in-memory layout,
// the variant being edited, and the per-field "keep same" flags that decide
// whether an edit to one line is copied to the others.
//
// A Session is not safe for concurrent use.
package editor

import (
	"errors"
	"fmt"

	"github.com/xob0t/textslot/pkg/images"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/logging"
	"github.com/xob0t/textslot/pkg/repository"
)

var (
	// ErrConfirmRequired is returned when removing variants without
	// confirmation. The formatting of the removed variants would be lost.
	ErrConfirmRequired = errors.New("editor: reducing max lines needs confirmation")

	// ErrBadOp is returned for malformed or inapplicable operations.
	ErrBadOp = errors.New("editor: bad operation")
)

// Session edits one layout.
type Session struct {
	name   string
	layout *layout.Layout
	images images.Resolver

	current  int
	lines    []*line
	keepSame [FieldMaxFont + 1]bool
	sizing   Field
	lastLine int
	resizing bool
	modified bool
}

// New starts editing a copy of l. The resolver supplies setup image sizes
// and may be nil.
func New(name string, l *layout.Layout, r images.Resolver) *Session {
	s := &Session{
		name:   name,
		images: r,
		sizing: FieldMaxFont,
	}
	s.reset(l)
	return s
}

// Load starts editing the named layout from repo.
func Load(repo *repository.Repository, name string, r images.Resolver) (*Session, error) {
	l, err := repo.Load(name)
	if err != nil {
		return nil, err
	}
	return New(name, l, r), nil
}

func (s *Session) reset(l *layout.Layout) {
	s.layout = l.Clone()
	s.keepSame = [FieldMaxFont + 1]bool{
		FieldY:       false,
		FieldX:       true,
		FieldAlign:   true,
		FieldWidth:   true,
		FieldMinFont: true,
		FieldMaxFont: true,
	}
	s.resizing = false
	s.lines, s.current = nil, 0
	n := s.layout.CurrentLines
	if _, ok := s.layout.Formats[n]; !ok {
		n = s.layout.MaxLines
	}
	s.setCurrentLines(n)
	s.modified = false
}

// Name is the layout being edited.
func (s *Session) Name() string { return s.name }

// Modified reports unsaved changes.
func (s *Session) Modified() bool { return s.modified }

// CurrentLines is the variant being edited.
func (s *Session) CurrentLines() int { return s.current }

// Sizing is the font bound changed by height drags.
func (s *Session) Sizing() Field { return s.sizing }

// LastLine is the most recently edited line.
func (s *Session) LastLine() int { return s.lastLine }

// KeepSameFlags returns the sync flag for every field.
func (s *Session) KeepSameFlags() map[Field]bool {
	out := make(map[Field]bool, len(s.keepSame))
	for f, on := range s.keepSame {
		out[Field(f)] = on
	}
	return out
}

// Layout returns a copy of the layout with the current variant's values
// floored to whole pixels.
func (s *Session) Layout() *layout.Layout {
	l := s.layout.Clone()
	s.commit(l)
	return l
}

func (s *Session) commit(l *layout.Layout) {
	lfs := l.Formats[s.current]
	for i, ln := range s.lines {
		if i < len(lfs) {
			lfs[i] = ln.format(lfs[i])
		}
	}
}

func (s *Session) limits() limits {
	return limits{width: float64(s.layout.SetupWidth), height: float64(s.layout.SetupHeight)}
}

// Apply runs one operation. A failed operation leaves the session as it
// was.
func (s *Session) Apply(o Op) error {
	switch o := o.(type) {
	case SetValue:
		if o.Field == FieldAlign {
			return fmt.Errorf("%w: use SetAlign for alignment", ErrBadOp)
		}
		if err := s.checkLine(o.Line); err != nil {
			return err
		}
		s.setVal(o.Field, o.Line, o.Value)
	case SetAlign:
		if !o.Align.Valid() {
			return fmt.Errorf("%w: invalid align", ErrBadOp)
		}
		if err := s.checkLine(o.Line); err != nil {
			return err
		}
		s.setVal(FieldAlign, o.Line, float64(o.Align))
	case Move:
		if err := s.checkLine(o.Line); err != nil {
			return err
		}
		s.lastLine = o.Line
		s.resizing = true
		for i, ln := range s.lines {
			s.doMove(ln, o, i == o.Line)
		}
	case Resize:
		if err := s.checkLine(o.Line); err != nil {
			return err
		}
		s.lastLine = o.Line
		for i, ln := range s.lines {
			s.doResize(ln, o, i == o.Line)
		}
	case ResizeEnd:
		if o.Line >= 0 && o.Line < len(s.lines) {
			s.lastLine = o.Line
		}
		s.resizing = false
		lm := s.limits()
		for _, ln := range s.lines {
			ln.setX(ln.X, lm, false)
			ln.setY(ln.Y, lm, false)
			ln.setWidth(ln.Width, lm, false)
			ln.setFont(s.sizing, ln.font(s.sizing), lm, false)
		}
	case KeepSame:
		if o.Field < FieldX || o.Field > FieldMaxFont {
			return fmt.Errorf("%w: %v cannot be kept the same", ErrBadOp, o.Field)
		}
		s.keepSame[o.Field] = o.On
		if o.On && s.lastLine < len(s.lines) {
			s.setAll(o.Field, s.lines[s.lastLine].value(o.Field))
		}
		return nil
	case SetSizing:
		if o.Font != FieldMinFont && o.Font != FieldMaxFont {
			return fmt.Errorf("%w: sizing must be MinFont or MaxFont", ErrBadOp)
		}
		s.sizing = o.Font
		return nil
	case SetCurrentLines:
		if _, ok := s.layout.Formats[o.Lines]; !ok {
			return fmt.Errorf("%w: %d", layout.ErrNoFormat, o.Lines)
		}
		s.setCurrentLines(o.Lines)
		return nil
	case SetMaxLines:
		return s.ChangeMaxLines(o.Lines, o.Confirmed)
	case SetMessage:
		if err := s.layout.SetMessage(o.Kind, o.Text); err != nil {
			return fmt.Errorf("%w: %v", ErrBadOp, err)
		}
	case SetColor:
		if err := s.layout.SetColor(o.Kind, o.Color); err != nil {
			return fmt.Errorf("%w: %v", ErrBadOp, err)
		}
	case SetImage:
		if err := s.setImage(o.Kind, o.ID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %T", ErrBadOp, o)
	}
	s.modified = true
	return nil
}

func (s *Session) checkLine(i int) error {
	if i < 0 || i >= len(s.lines) {
		return fmt.Errorf("%w: line %d not in variant of %d lines", ErrBadOp, i, len(s.lines))
	}
	return nil
}

// setVal applies a typed value to the line, or to every line when the field
// is kept the same.
func (s *Session) setVal(f Field, lineNbr int, v float64) {
	s.lastLine = lineNbr
	if s.keepSame[f] {
		s.setAll(f, v)
		return
	}
	s.lines[lineNbr].set(f, v, s.limits(), s.resizing)
}

func (s *Session) setAll(f Field, v float64) {
	lm := s.limits()
	for _, ln := range s.lines {
		ln.set(f, v, lm, s.resizing)
	}
}

// doMove moves X and Y of the dragged line, and of the other lines for
// whichever of X and Y is kept the same.
func (s *Session) doMove(ln *line, m Move, source bool) {
	lm := s.limits()
	if source || s.keepSame[FieldX] {
		ln.setX(ln.X+m.DX, lm, true)
	}
	if source || s.keepSame[FieldY] {
		ln.setY(ln.Y+m.DY, lm, true)
	}
}

// doResize applies an edge drag. X follows the edge at the line's anchor:
// the left edge for L, the right for R, their average for C. Height changes
// the sizing font by twice the delta, as the box grows both ways.
func (s *Session) doResize(ln *line, r Resize, source bool) {
	if !(source || s.keepSame[FieldX] || s.keepSame[FieldWidth] || s.keepSame[s.sizing]) {
		return
	}
	s.resizing = true
	lm := s.limits()
	if r.Width != 0 {
		var dx float64
		switch ln.Align {
		case layout.AlignLeft:
			dx = r.Left
		case layout.AlignRight:
			dx = r.Right
		default:
			dx = (r.Left + r.Right) / 2
		}
		if source || s.keepSame[FieldX] {
			ln.setX(ln.X+dx, lm, true)
		}
		if source || s.keepSame[FieldWidth] {
			ln.setWidth(ln.Width+r.Width, lm, true)
		}
	}
	if r.Height != 0 && (source || s.keepSame[s.sizing]) {
		ln.setFont(s.sizing, ln.font(s.sizing)+2*r.Height, lm, true)
	}
}

// setCurrentLines loads variant n into the line table. With more than one
// line, each of X..MaxFont is kept the same exactly when every line already
// shares a non-zero value.
func (s *Session) setCurrentLines(n int) {
	s.commit(s.layout)
	s.current = n
	s.layout.CurrentLines = n
	s.lines = s.lines[:0]
	for _, lf := range s.layout.Formats[n] {
		s.lines = append(s.lines, newLine(lf))
	}
	s.lastLine = 0
	if n < 2 {
		return
	}
	for f := FieldX; f <= FieldMaxFont; f++ {
		v := s.lines[0].value(f)
		same := v != 0
		for _, ln := range s.lines[1:] {
			if ln.value(f) != v {
				same = false
				break
			}
		}
		s.keepSame[f] = same
	}
}

// ChangeMaxLines grows or shrinks the set of variants. Shrinking discards
// formatting and fails with ErrConfirmRequired unless confirmed. Growing
// switches to the new largest variant.
func (s *Session) ChangeMaxLines(m int, confirmed bool) error {
	if m == s.layout.MaxLines {
		return nil
	}
	if m < s.layout.MaxLines && !confirmed {
		return ErrConfirmRequired
	}
	s.commit(s.layout)
	next := s.layout.Clone()
	if m < next.MaxLines {
		if err := layout.ShrinkMaxLines(next, m); err != nil {
			return err
		}
	} else if err := layout.GrowMaxLines(next, m); err != nil {
		return err
	}
	s.layout = next
	s.lines, s.current = nil, 0
	s.setCurrentLines(next.CurrentLines)
	s.modified = true
	return nil
}

// setImage stores an image id. A new setup image resizes the setup space
// and re-limits the lines being edited.
func (s *Session) setImage(kind ImageKind, id int) error {
	switch kind {
	case ImageOverlay:
		s.layout.OverlayImage = id
	case ImageSetup:
		s.layout.SetupImage = id
		if id == 0 {
			return nil
		}
		w, h := images.Dimensions(s.images, id, images.SizeFull, s.layout.SetupWidth, s.layout.SetupHeight)
		w = min(max(w, layout.MinImageSize), layout.MaxImageSize)
		h = min(max(h, layout.MinImageSize), layout.MaxImageSize)
		s.layout.SetupWidth, s.layout.SetupHeight = w, h
		s.commit(s.layout)
		lm := s.limits()
		for _, lfs := range s.layout.Formats {
			for i, lf := range lfs {
				ln := newLine(lf)
				ln.clampAll(lm)
				lfs[i] = ln.format(lf)
			}
		}
		for i, lf := range s.layout.Formats[s.current] {
			s.lines[i] = newLine(lf)
		}
	default:
		return fmt.Errorf("%w: unknown image %q", ErrBadOp, kind)
	}
	return nil
}

// Save validates a sanitized copy of the layout and stores it. On failure
// nothing changes; on success the session continues from the stored copy.
func (s *Session) Save(repo *repository.Repository) error {
	valid, err := layout.Check(s.Layout(), true)
	if err != nil {
		return err
	}
	if err := repo.Save(s.name, valid); err != nil {
		return err
	}
	logging.Logger().Debug("layout saved", "name", s.name)
	sizing, keep := s.sizing, s.keepSame
	s.reset(valid)
	s.sizing = sizing
	if s.current < 2 {
		s.keepSame = keep
	}
	return nil
}

// Revert discards unsaved changes by reloading from repo.
func (s *Session) Revert(repo *repository.Repository) error {
	l, err := repo.Load(s.name)
	if err != nil {
		return err
	}
	s.reset(l)
	return nil
}

// Rename follows a repository rename of the layout being edited.
func (s *Session) Rename(name string) { s.name = name }
