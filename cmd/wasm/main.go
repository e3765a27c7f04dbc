//go:build js && wasm

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"sync"
	"syscall/js"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/engine"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/render"
	"github.com/inamate/whiteboard/internal/scene"
)

var (
	// mu serializes editor calls between JS callbacks and image decodes.
	mu sync.Mutex
	ed *engine.Editor
)

// jsSurface forwards redraw requests to window.whiteboardRedraw.
type jsSurface struct{}

func (jsSurface) Redraw() {
	if fn := js.Global().Get("whiteboardRedraw"); fn.Type() == js.TypeFunction {
		fn.Invoke()
	}
}

// jsNotifier forwards notifications to window.whiteboardNotify.
type jsNotifier struct{}

func (jsNotifier) Notify(message string, severity engine.Severity) {
	engine.SlogNotifier{}.Notify(message, severity)
	if fn := js.Global().Get("whiteboardNotify"); fn.Type() == js.TypeFunction {
		fn.Invoke(message, string(severity))
	}
}

func main() {
	var err error
	ed, err = engine.New(engine.DefaultOptions(), engine.Deps{
		Surface:  jsSurface{},
		Notifier: jsNotifier{},
	})
	if err != nil {
		panic(err)
	}

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	api.Set("loadDocument", js.FuncOf(locked(loadDocument)))
	api.Set("loadSampleDocument", js.FuncOf(locked(loadSampleDocument)))
	api.Set("selectTool", js.FuncOf(locked(selectTool)))
	api.Set("pointerDown", js.FuncOf(locked(pointerDown)))
	api.Set("pointerMove", js.FuncOf(locked(pointerMove)))
	api.Set("pointerUp", js.FuncOf(locked(pointerUp)))
	api.Set("handleKey", js.FuncOf(locked(handleKey)))
	api.Set("setText", js.FuncOf(locked(setText)))
	api.Set("endTextEditing", js.FuncOf(locked(endTextEditing)))
	api.Set("setSelection", js.FuncOf(locked(setSelection)))
	api.Set("setStyle", js.FuncOf(locked(setStyle)))
	api.Set("setGeometry", js.FuncOf(locked(setGeometry)))
	api.Set("reorder", js.FuncOf(locked(reorder)))
	api.Set("group", js.FuncOf(locked(simple(ed.Group))))
	api.Set("ungroup", js.FuncOf(locked(simple(ed.Ungroup))))
	api.Set("deleteSelected", js.FuncOf(locked(simple(ed.DeleteSelected))))
	api.Set("clear", js.FuncOf(locked(simple(ed.Clear))))
	api.Set("paste", js.FuncOf(locked(simple(ed.Paste))))
	api.Set("duplicate", js.FuncOf(locked(simple(ed.Duplicate))))
	api.Set("copy", js.FuncOf(locked(copySelection)))
	api.Set("undo", js.FuncOf(locked(undo)))
	api.Set("redo", js.FuncOf(locked(redo)))
	api.Set("addLayer", js.FuncOf(locked(addLayer)))
	api.Set("setLayer", js.FuncOf(locked(setLayer)))
	api.Set("setView", js.FuncOf(locked(setView)))
	api.Set("insertImage", js.FuncOf(insertImage))

	// --- Queries (frontend ← backend) ---
	api.Set("render", js.FuncOf(locked(renderScene)))
	api.Set("hitTest", js.FuncOf(locked(hitTest)))
	api.Set("getSelectionBounds", js.FuncOf(locked(getSelectionBounds)))
	api.Set("getSelection", js.FuncOf(locked(getSelection)))
	api.Set("getDocument", js.FuncOf(locked(getDocument)))
	api.Set("getState", js.FuncOf(locked(getState)))
	api.Set("exportPNG", js.FuncOf(locked(exportPNG)))

	// Register on global scope
	js.Global().Set("whiteboardEngine", api)

	// Signal that WASM is ready
	js.Global().Set("whiteboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

type handler func(this js.Value, args []js.Value) interface{}

func locked(fn handler) handler {
	return func(this js.Value, args []js.Value) interface{} {
		mu.Lock()
		defer mu.Unlock()
		return fn(this, args)
	}
}

// simple adapts an editor operation without arguments.
func simple(op func() error) handler {
	return func(this js.Value, args []js.Value) interface{} {
		return result(op())
	}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func errorValue(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing document JSON")
	}
	return result(ed.LoadBytes([]byte(args[0].String())))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	data, err := document.Encode(document.NewSampleProject())
	if err != nil {
		return result(err)
	}
	return result(ed.LoadBytes(data))
}

func selectTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing tool name")
	}
	return result(ed.SelectTool(args[0].String()))
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorValue("missing coordinates")
	}
	additive := len(args) > 2 && args[2].Truthy()
	return result(ed.PointerDown(args[0].Float(), args[1].Float(), additive))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	ed.PointerMove(args[0].Float(), args[1].Float())
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorValue("missing coordinates")
	}
	return result(ed.PointerUp(args[0].Float(), args[1].Float()))
}

func handleKey(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	var k engine.Key
	if err := json.Unmarshal([]byte(args[0].String()), &k); err != nil {
		return errorValue("invalid key event")
	}
	handled, err := ed.HandleKey(k)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(handled)
}

func setText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.SetText(args[0].String()))
}

func endTextEditing(this js.Value, args []js.Value) interface{} {
	return result(ed.EndTextEditing())
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		ed.Selection().Clear()
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	ed.Selection().Set(ids...)
	return nil
}

type styleArgs struct {
	Fill        *string  `json:"fill"`
	Stroke      *string  `json:"stroke"`
	StrokeWidth *float64 `json:"strokeWidth"`
	Opacity     *float64 `json:"opacity"`
}

func setStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing style JSON")
	}
	var s styleArgs
	if err := json.Unmarshal([]byte(args[0].String()), &s); err != nil {
		return errorValue("invalid style JSON")
	}
	var edits []engine.StyleEdit
	if s.Fill != nil {
		edits = append(edits, engine.SetFill(*s.Fill))
	}
	if s.Stroke != nil {
		edits = append(edits, engine.SetStroke(*s.Stroke))
	}
	if s.StrokeWidth != nil {
		edits = append(edits, engine.SetStrokeWidth(*s.StrokeWidth))
	}
	if s.Opacity != nil {
		edits = append(edits, engine.SetOpacity(*s.Opacity))
	}
	for _, edit := range edits {
		if err := ed.ApplyStyle(edit); err != nil {
			return result(err)
		}
	}
	return result(nil)
}

func setGeometry(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 {
		return errorValue("expected id, x, y, width, height, rotation")
	}
	return result(ed.SetGeometry(args[0].String(),
		args[1].Float(), args[2].Float(), args[3].Float(), args[4].Float(), args[5].Float()))
}

func reorder(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing direction")
	}
	switch args[0].String() {
	case "front":
		return result(ed.Reorder(scene.ToFront))
	case "back":
		return result(ed.Reorder(scene.ToBack))
	}
	return errorValue("direction must be front or back")
}

func copySelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.Copy())
}

func undo(this js.Value, args []js.Value) interface{} {
	ok, err := ed.Undo()
	if err != nil {
		return result(err)
	}
	return js.ValueOf(ok)
}

func redo(this js.Value, args []js.Value) interface{} {
	ok, err := ed.Redo()
	if err != nil {
		return result(err)
	}
	return js.ValueOf(ok)
}

func addLayer(this js.Value, args []js.Value) interface{} {
	name := "Layer"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	l, err := ed.AddLayer(name)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(l.ID)
}

// setLayer(id, {current, visible, locked}) updates one layer.
func setLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorValue("expected layer id and options")
	}
	id, o := args[0].String(), args[1]
	if v := o.Get("visible"); v.Type() == js.TypeBoolean {
		if err := ed.SetLayerVisible(id, v.Bool()); err != nil {
			return result(err)
		}
	}
	if v := o.Get("locked"); v.Type() == js.TypeBoolean {
		if err := ed.SetLayerLocked(id, v.Bool()); err != nil {
			return result(err)
		}
	}
	if o.Get("current").Truthy() {
		return result(ed.SetCurrentLayer(id))
	}
	return result(nil)
}

func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorValue("expected panX, panY, zoom")
	}
	return result(ed.SetView(geom.Point{X: args[0].Float(), Y: args[1].Float()}, args[2].Float()))
}

// insertImage(name, bytes: Uint8Array, x, y) decodes in the background and
// reports the new asset through the optional callback in args[4].
func insertImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return errorValue("expected name, bytes, x, y")
	}
	data := make([]byte, args[1].Get("length").Int())
	js.CopyBytesToGo(data, args[1])
	at := geom.Point{X: args[2].Float(), Y: args[3].Float()}
	var done js.Value
	if len(args) > 4 && args[4].Type() == js.TypeFunction {
		done = args[4]
	}

	mu.Lock()
	f := ed.InsertImage(args[0].String(), bytes.NewReader(data), at)
	mu.Unlock()

	go func() {
		<-f.Done()
		mu.Lock()
		err := ed.ApplyImage(f)
		mu.Unlock()
		if done.IsUndefined() {
			return
		}
		if err != nil {
			done.Invoke(err.Error(), js.Null())
			return
		}
		done.Invoke(js.Null(), f.Asset().ID)
	}()
	return result(nil)
}

// --- Query Handlers ---

func renderScene(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.RenderJSON())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	id, _ := ed.HitTest(args[0].Float(), args[1].Float())
	return js.ValueOf(id)
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(render.RectToJSON(ed.SelectionBounds()))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	ids := ed.Selection().IDs()
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := ed.Bytes()
	if err != nil {
		return result(err)
	}
	return js.ValueOf(string(data))
}

func getState(this js.Value, args []js.Value) interface{} {
	tools := ed.Tools()
	return js.ValueOf(map[string]interface{}{
		"tool":    string(tools.Tool()),
		"state":   tools.State().String(),
		"canUndo": ed.History().CanUndo(),
		"canRedo": ed.History().CanRedo(),
	})
}

// exportPNG returns the board as a base64 PNG.
func exportPNG(this js.Value, args []js.Value) interface{} {
	var buf bytes.Buffer
	if err := ed.ExportPNG(&buf); err != nil {
		return result(err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(buf.Bytes()))
}
