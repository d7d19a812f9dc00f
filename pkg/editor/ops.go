// ops.go — Editing operations and their JSON form.
package editor

import (
	"encoding/json"
	"fmt"

	"github.com/xob0t/textslot/pkg/layout"
)

// Field is one editable column of a line.
type Field int

const (
	FieldY Field = iota
	FieldX
	FieldAlign
	FieldWidth
	FieldMinFont
	FieldMaxFont
)

var fieldNames = [...]string{"Y", "X", "Align", "Width", "MinFont", "MaxFont"}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField accepts the persisted field names.
func ParseField(s string) (Field, error) {
	for i, n := range fieldNames {
		if n == s {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field %q", ErrBadOp, s)
}

func (f Field) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Field) UnmarshalText(b []byte) error {
	v, err := ParseField(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ImageKind names one of the layout's two images.
type ImageKind string

const (
	ImageSetup   ImageKind = "SetupImage"
	ImageOverlay ImageKind = "OverlayImage"
)

// Op is an editing operation. The set is closed: Apply handles every type
// in this file and nothing else.
type Op interface{ op() string }

// SetValue types a number into one cell of the line table.
type SetValue struct {
	Line  int     `json:"line"`
	Field Field   `json:"field"`
	Value float64 `json:"value"`
}

// SetAlign picks a line's alignment. X moves so the text stays put.
type SetAlign struct {
	Line  int          `json:"line"`
	Align layout.Align `json:"align"`
}

// Move is one step of dragging a line's box.
type Move struct {
	Line int     `json:"line"`
	DX   float64 `json:"dx"`
	DY   float64 `json:"dy"`
}

// Resize is one step of dragging a box edge. Left and Right are how far each
// edge moved, Width and Height the change in box size.
type Resize struct {
	Line   int     `json:"line"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ResizeEnd finishes a drag, snapping every value to whole pixels.
type ResizeEnd struct {
	Line int `json:"line"`
}

// KeepSame turns syncing of a field across all lines on or off.
type KeepSame struct {
	Field Field `json:"field"`
	On    bool  `json:"on"`
}

// SetSizing chooses which font bound box height drags change.
type SetSizing struct {
	Font Field `json:"font"`
}

// SetCurrentLines switches the variant being edited.
type SetCurrentLines struct {
	Lines int `json:"lines"`
}

// SetMaxLines adds or removes variants. Removing needs Confirmed.
type SetMaxLines struct {
	Lines     int  `json:"lines"`
	Confirmed bool `json:"confirmed"`
}

// SetMessage edits one of the overflow messages.
type SetMessage struct {
	Kind layout.MessageKind `json:"kind"`
	Text string             `json:"text"`
}

// SetColor edits one of the layout colours.
type SetColor struct {
	Kind  layout.ColorKind `json:"kind"`
	Color layout.Color     `json:"color"`
}

// SetImage picks the setup or overlay image. 0 clears it.
type SetImage struct {
	Kind ImageKind `json:"kind"`
	ID   int       `json:"id"`
}

func (SetValue) op() string        { return "SetValue" }
func (SetAlign) op() string        { return "SetAlign" }
func (Move) op() string            { return "Move" }
func (Resize) op() string          { return "Resize" }
func (ResizeEnd) op() string       { return "ResizeEnd" }
func (KeepSame) op() string        { return "KeepSame" }
func (SetSizing) op() string       { return "SetSizing" }
func (SetCurrentLines) op() string { return "SetCurrentLines" }
func (SetMaxLines) op() string     { return "SetMaxLines" }
func (SetMessage) op() string      { return "SetMessage" }
func (SetColor) op() string        { return "SetColor" }
func (SetImage) op() string        { return "SetImage" }

// Name returns the op's tag as used in JSON.
func Name(o Op) string { return o.op() }

// DecodeOp parses {"op": "<Name>", ...fields}.
func DecodeOp(data []byte) (Op, error) {
	var head struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOp, err)
	}

	var o Op
	switch head.Op {
	case "SetValue":
		o = decode[SetValue](data)
	case "SetAlign":
		o = decode[SetAlign](data)
	case "Move":
		o = decode[Move](data)
	case "Resize":
		o = decode[Resize](data)
	case "ResizeEnd":
		o = decode[ResizeEnd](data)
	case "KeepSame":
		o = decode[KeepSame](data)
	case "SetSizing":
		o = decode[SetSizing](data)
	case "SetCurrentLines":
		o = decode[SetCurrentLines](data)
	case "SetMaxLines":
		o = decode[SetMaxLines](data)
	case "SetMessage":
		o = decode[SetMessage](data)
	case "SetColor":
		o = decode[SetColor](data)
	case "SetImage":
		o = decode[SetImage](data)
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrBadOp, head.Op)
	}
	if err, ok := o.(decodeError); ok {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadOp, head.Op, err.err)
	}
	return o, nil
}

// EncodeOp is the inverse of DecodeOp.
func EncodeOp(o Op) ([]byte, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(o.op())
	fields["op"] = tag
	return json.Marshal(fields)
}

// decodeError carries a field decoding failure out of decode.
type decodeError struct{ err error }

func (decodeError) op() string { return "" }

func decode[T Op](data []byte) Op {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return decodeError{err}
	}
	return v
}
