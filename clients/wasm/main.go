//go:build js && wasm

// textslot WASM — Shopper preview running in the browser.
// Compiled with: GOOS=js GOARCH=wasm go build -o textslot.wasm ./clients/wasm/
package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/xob0t/textslot/pkg/fit"
	"github.com/xob0t/textslot/pkg/layout"
	"github.com/xob0t/textslot/pkg/session"
)

// The page drives one preview at a time.
var (
	mu     sync.Mutex
	engine *fit.Engine
	active *session.Session
	shown  *layout.Layout // messages for the active preview, nil for wire variants
)

func main() {
	fmt.Println("textslot WASM loaded")

	ctx := js.Global().Get("document").Call("createElement", "canvas").Call("getContext", "2d")
	engine = fit.New(canvasMeasurer(ctx), fit.NewMetrics(canvasCalibrator{ctx}))

	js.Global().Set("goOpenLayout", js.FuncOf(openLayout))
	js.Global().Set("goOpenVariants", js.FuncOf(openVariants))
	js.Global().Set("goDisplay", js.FuncOf(display))
	js.Global().Set("goSetLine", js.FuncOf(setLine))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// ── Browser measuring ──

func cssFont(family string, size int) string {
	return fmt.Sprintf("%dpx %q", size, family)
}

// canvasMeasurer measures with the page's fonts through CanvasRenderingContext2D.
func canvasMeasurer(ctx js.Value) fit.MeasureFunc {
	return func(text, family string, size int) float64 {
		ctx.Set("font", cssFont(family, size))
		return ctx.Call("measureText", text).Get("width").Float()
	}
}

type canvasCalibrator struct{ ctx js.Value }

func (c canvasCalibrator) Ink(text, family string, size int) (fit.Ink, error) {
	c.ctx.Set("font", cssFont(family, size))
	m := c.ctx.Call("measureText", text)
	asc, desc := m.Get("actualBoundingBoxAscent"), m.Get("actualBoundingBoxDescent")
	if asc.IsUndefined() || desc.IsUndefined() {
		return fit.Ink{}, fmt.Errorf("browser has no ink metrics")
	}
	return fit.Ink{Ascent: asc.Float(), Descent: desc.Float()}, nil
}

// ── JS API ──

func fail(err error) any {
	return js.ValueOf("error: " + err.Error())
}

// goOpenLayout(layoutJSON, width, height, family) — preview a full layout
// projected onto the displayed image size.
func openLayout(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return js.ValueOf("error: need layoutJSON, width, height, family")
	}
	l, err := layout.Parse([]byte(args[0].String()), true)
	if err != nil {
		return fail(err)
	}
	p := layout.Project(l, args[1].Int(), args[2].Int())

	mu.Lock()
	defer mu.Unlock()
	active = session.New(engine, p.Formats, args[3].String())
	shown = l
	return js.ValueOf("ok")
}

// goOpenVariants(variantsJSON, family) — preview compact variants already
// scaled by the server: [{"l": 1, "f": "..."}].
func openVariants(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need variantsJSON, family")
	}
	var vs []layout.Variant
	if err := json.Unmarshal([]byte(args[0].String()), &vs); err != nil {
		return fail(fmt.Errorf("parse variants: %w", err))
	}
	formats, err := layout.ParseVariants(vs)
	if err != nil {
		return fail(err)
	}

	mu.Lock()
	defer mu.Unlock()
	active = session.New(engine, formats, args[1].String())
	shown = nil
	return js.ValueOf("ok")
}

type result struct {
	Lines      int             `json:"lines"`
	Warnings   string          `json:"warnings"`
	Messages   []string        `json:"messages"`
	Placements []fit.Placement `json:"placements"`
}

func reply(flags fit.Flags, multiline bool) any {
	res := result{
		Lines:      active.LineCount(),
		Warnings:   flags.String(),
		Placements: active.Placements(),
	}
	if shown != nil {
		res.Messages = session.Messages(shown, flags, multiline)
	} else {
		res.Messages = session.Messages(layout.Default(), flags, multiline)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

// goDisplay(text) — fit a multi-line message and return placements JSON.
func display(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need text")
	}
	mu.Lock()
	defer mu.Unlock()
	if active == nil {
		return js.ValueOf("error: no layout open")
	}
	return reply(active.DisplayText(args[0].String()), true)
}

// goSetLine(index, text) — update one single-line input.
func setLine(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("error: need index, text")
	}
	mu.Lock()
	defer mu.Unlock()
	if active == nil {
		return js.ValueOf("error: no layout open")
	}
	if active.LineCount() == 0 {
		active.SetLineCount(active.MaxLines())
	}
	return reply(active.SetLine(args[0].Int(), args[1].String()), false)
}
