// Package engine is the editing context of a whiteboard. An Editor owns the
// scene, selection, history, snapping and drawing tools, and is driven from
// a single goroutine; none of its methods are safe for concurrent use.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/inamate/whiteboard/internal/asset"
	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/history"
	"github.com/inamate/whiteboard/internal/render"
	"github.com/inamate/whiteboard/internal/scene"
	"github.com/inamate/whiteboard/internal/snap"
	"github.com/inamate/whiteboard/internal/tool"
)

var (
	ErrNoPersistence    = errors.New("no persistence configured")
	ErrLayerNotEditable = errors.New("current layer is hidden or locked")
)

// Deps are the collaborators of an editor. Nil fields get defaults.
type Deps struct {
	Surface  Surface
	Notifier Notifier
	Store    Persistence
	Assets   asset.Store
}

type Editor struct {
	opts Options

	graph *scene.Graph
	sel   *scene.Selection
	hist  *history.Engine
	snap  *snap.Engine
	tools *tool.Controller
	view  document.View

	surface  Surface
	notifier Notifier
	store    Persistence
	assets   asset.Store

	drag       *dragState
	clipboard  []*document.SceneObject
	pasteCount int
}

// New creates an editor with an empty board.
func New(opts Options, deps Deps) (*Editor, error) {
	e := &Editor{
		opts:     opts,
		graph:    scene.NewGraph(),
		view:     document.DefaultView(),
		surface:  deps.Surface,
		notifier: deps.Notifier,
		store:    deps.Store,
		assets:   deps.Assets,
	}
	if e.surface == nil {
		e.surface = nopSurface{}
	}
	if e.notifier == nil {
		e.notifier = SlogNotifier{}
	}
	if e.assets == nil {
		e.assets = asset.NewMemory()
	}

	e.sel = scene.NewSelection(e.graph)
	e.snap = snap.New(e.graph, opts.Snap)

	hist, err := history.New(editorState{e}, opts.HistoryMax)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}
	e.hist = hist
	e.tools = tool.New(e.graph, e.sel, hitTester{e.graph}, hist, opts.Tool)
	return e, nil
}

func (e *Editor) Graph() *scene.Graph         { return e.graph }
func (e *Editor) Selection() *scene.Selection { return e.sel }
func (e *Editor) History() *history.Engine    { return e.hist }
func (e *Editor) Tools() *tool.Controller     { return e.tools }
func (e *Editor) Snap() *snap.Engine          { return e.snap }
func (e *Editor) View() document.View         { return e.view }
func (e *Editor) Assets() asset.Store         { return e.assets }
func (e *Editor) Options() Options            { return e.opts }

// editorState lets history capture and restore the editor.
type editorState struct{ e *Editor }

func (s editorState) Capture() *document.Project {
	return s.e.graph.Export(s.e.view)
}

// Restore replaces the scene wholesale. Gestures in progress are dropped
// and the selection keeps only ids that still exist.
func (s editorState) Restore(p *document.Project) error {
	e := s.e
	e.tools.Abort()
	e.drag = nil
	e.snap.End()
	e.graph.Replace(p)
	e.view = p.View
	e.sel.Reconcile()
	e.surface.Redraw()
	return nil
}

type hitTester struct{ g *scene.Graph }

func (h hitTester) HitTest(x, y float64) (string, bool) {
	return render.HitTest(h.g.Interactive(), x, y)
}

// commit records the scene in history and repaints.
func (e *Editor) commit(action string) error {
	if err := e.hist.Commit(); err != nil {
		e.notifier.Notify("Could not record "+action, SeverityError)
		return fmt.Errorf("%s: %w", action, err)
	}
	slog.Debug("commit", "action", action, "cursor", e.hist.Cursor(), "len", e.hist.Len())
	e.surface.Redraw()
	return nil
}

// editableLayer returns the current layer if new objects may go on it.
func (e *Editor) editableLayer() (*document.Layer, error) {
	l := e.graph.CurrentLayer()
	if l == nil || !l.Visible || l.Locked {
		e.notifier.Notify("The current layer is hidden or locked", SeverityWarning)
		return nil, ErrLayerNotEditable
	}
	return l, nil
}

// --- History ---

// Undo restores the previous snapshot. It is a no-op at the oldest one.
func (e *Editor) Undo() (bool, error) {
	return e.hist.Undo()
}

// Redo re-applies the next snapshot. It is a no-op at the newest one.
func (e *Editor) Redo() (bool, error) {
	return e.hist.Redo()
}

// --- Load / save ---

// LoadBytes replaces the board with a serialized project. The live scene
// is untouched unless the whole input parses and validates.
func (e *Editor) LoadBytes(data []byte) error {
	p, err := document.Decode(data)
	if err != nil {
		e.notifier.Notify("Could not open project: "+err.Error(), SeverityError)
		return err
	}
	if err := (editorState{e}).Restore(p); err != nil {
		return err
	}
	e.sel.Clear()
	if err := e.hist.Reset(); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}

// Load reads a project through the persistence collaborator.
func (e *Editor) Load(ctx context.Context, name string) error {
	if e.store == nil {
		return ErrNoPersistence
	}
	data, err := e.store.ReadBytes(ctx, name)
	if err != nil {
		e.notifier.Notify("Could not read "+name, SeverityError)
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := e.LoadBytes(data); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	e.notifier.Notify("Opened "+name, SeverityInfo)
	return nil
}

// Project returns a self-contained copy of the board, stamped with the current time.
func (e *Editor) Project() *document.Project {
	p := e.graph.Export(e.view)
	p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return p
}

// Bytes serializes the board in project format.
func (e *Editor) Bytes() ([]byte, error) {
	return document.Encode(e.Project())
}

// Save writes the board through the persistence collaborator.
func (e *Editor) Save(ctx context.Context, name string) error {
	if e.store == nil {
		return ErrNoPersistence
	}
	data, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := e.store.WriteBytes(ctx, name, data); err != nil {
		e.notifier.Notify("Could not save "+name, SeverityError)
		return fmt.Errorf("save %s: %w", name, err)
	}
	e.notifier.Notify("Saved "+name, SeverityInfo)
	return nil
}

// --- Tools and pointer ---

func (e *Editor) SelectTool(name string) error {
	e.endDrag()
	err := e.tools.SelectTool(tool.Tool(name))
	e.surface.Redraw()
	return err
}

// PointerDown routes a press to the drawing tools, or, with the select
// tool, selects the object under the pointer and starts moving the selection.
// With additive set the hit object is toggled into the selection.
func (e *Editor) PointerDown(x, y float64, additive bool) error {
	if !finite(x, y) {
		return fmt.Errorf("pointer down at (%v, %v): %w", x, y, scene.ErrInvalidOperation)
	}
	consumed, err := e.tools.PointerDown(x, y)
	if err != nil {
		return err
	}
	if consumed {
		e.surface.Redraw()
		return nil
	}
	if e.tools.Tool() != tool.Select {
		return nil
	}

	id, hit := render.HitTest(e.graph.Interactive(), x, y)
	switch {
	case !hit:
		e.sel.Clear()
	case additive:
		e.sel.Toggle(id)
	case !e.sel.Contains(id):
		e.sel.Set(id)
	}
	if hit && e.sel.Contains(id) {
		e.BeginDrag(x, y)
	}
	e.surface.Redraw()
	return nil
}

func (e *Editor) PointerMove(x, y float64) {
	if !finite(x, y) {
		return
	}
	switch {
	case e.tools.PointerMove(x, y):
	case e.drag != nil:
		e.Drag(x, y)
	default:
		return
	}
	e.surface.Redraw()
}

func (e *Editor) PointerUp(x, y float64) error {
	if !finite(x, y) {
		return fmt.Errorf("pointer up at (%v, %v): %w", x, y, scene.ErrInvalidOperation)
	}
	if e.tools.State() == tool.Drawing {
		_, err := e.tools.PointerUp(x, y)
		e.surface.Redraw()
		return err
	}
	if e.drag != nil {
		e.Drag(x, y)
		return e.EndDrag()
	}
	return nil
}

// Escape cancels drawing or text editing.
func (e *Editor) Escape() error {
	err := e.tools.Escape()
	e.surface.Redraw()
	return err
}

func (e *Editor) SetText(content string) bool {
	ok := e.tools.SetText(content)
	if ok {
		e.surface.Redraw()
	}
	return ok
}

func (e *Editor) EndTextEditing() error {
	return e.tools.EndTextEditing()
}

// --- Selection operations ---

// DeleteSelected removes the selected objects as one change.
func (e *Editor) DeleteSelected() error {
	if err := e.tools.EndTextEditing(); err != nil {
		return err
	}
	if e.sel.Len() == 0 {
		return nil
	}
	e.endDrag()
	ids := e.sel.DeleteSelected()
	slog.Debug("delete selection", "count", len(ids))
	return e.commit("delete")
}

// Group replaces the selection with a group of its objects.
func (e *Editor) Group() error {
	if err := e.tools.EndTextEditing(); err != nil {
		return err
	}
	grp, err := e.graph.Group(e.sel.IDs())
	if err != nil {
		e.notifier.Notify("Select at least two objects on one layer to group", SeverityWarning)
		return err
	}
	e.sel.Set(grp.ID)
	return e.commit("group")
}

// Ungroup dissolves the selected group and selects its former members.
func (e *Editor) Ungroup() error {
	if err := e.tools.EndTextEditing(); err != nil {
		return err
	}
	ids := e.sel.IDs()
	if len(ids) != 1 {
		e.notifier.Notify("Select a single group to ungroup", SeverityWarning)
		return fmt.Errorf("ungroup %d objects: %w", len(ids), scene.ErrInvalidOperation)
	}
	members, err := e.graph.Ungroup(ids[0])
	if err != nil {
		e.notifier.Notify("Select a single group to ungroup", SeverityWarning)
		return err
	}
	e.sel.Set(members...)
	return e.commit("ungroup")
}

// Reorder moves every selected object to the front or back of its layer.
func (e *Editor) Reorder(dir scene.Direction) error {
	ids := e.sel.IDs()
	if len(ids) == 0 {
		return nil
	}
	if dir == scene.ToBack {
		// Walk back to front so relative order survives.
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	for _, id := range ids {
		if err := e.graph.Reorder(id, dir); err != nil {
			return err
		}
	}
	return e.commit("reorder")
}

// Clear removes every object from every layer.
func (e *Editor) Clear() error {
	e.tools.Abort()
	e.endDrag()
	e.graph.Clear()
	e.sel.Clear()
	return e.commit("clear")
}

// --- Style ---

// StyleEdit is one property change applied to the selection.
type StyleEdit func(obj *document.SceneObject)

func SetFill(color string) StyleEdit {
	return func(obj *document.SceneObject) { obj.Style.Fill = color }
}

// SetStroke colors outlines; text has no outline and takes the color as its fill.
func SetStroke(color string) StyleEdit {
	return func(obj *document.SceneObject) {
		if obj.Kind == document.KindText {
			obj.Style.Fill = color
			return
		}
		obj.Style.Stroke = color
	}
}

// SetStrokeWidth does not apply to text or images.
func SetStrokeWidth(width float64) StyleEdit {
	return func(obj *document.SceneObject) {
		switch obj.Kind {
		case document.KindText, document.KindImage:
		default:
			obj.Style.StrokeWidth = width
		}
	}
}

func SetOpacity(opacity float64) StyleEdit {
	return func(obj *document.SceneObject) { obj.Style.Opacity = opacity }
}

// ApplyStyle applies edit to every selected object, recursing into groups,
// and records one change. The edit also becomes the default for new shapes.
func (e *Editor) ApplyStyle(edit StyleEdit) error {
	defaults := &document.SceneObject{Kind: document.KindRectangle, Style: e.tools.Options().Style}
	edit(defaults)
	if err := validStyle(defaults.Style); err != nil {
		return err
	}
	e.tools.SetStyle(defaults.Style)

	objs := e.sel.Objects()
	if len(objs) == 0 {
		return nil
	}
	for _, obj := range objs {
		applyStyle(obj, edit)
	}
	return e.commit("style")
}

func applyStyle(obj *document.SceneObject, edit StyleEdit) {
	if obj.Kind == document.KindGroup {
		for _, m := range obj.Members {
			applyStyle(m, edit)
		}
		return
	}
	edit(obj)
}

var ErrInvalidStyle = errors.New("invalid style")

func validStyle(s document.Style) error {
	switch {
	case !document.ValidColor(s.Fill), !document.ValidColor(s.Stroke):
		return fmt.Errorf("color: %w", ErrInvalidStyle)
	case !finite(s.StrokeWidth) || s.StrokeWidth < 0:
		return fmt.Errorf("stroke width %v: %w", s.StrokeWidth, ErrInvalidStyle)
	case !finite(s.Opacity) || s.Opacity < 0 || s.Opacity > 1:
		return fmt.Errorf("opacity %v: %w", s.Opacity, ErrInvalidStyle)
	}
	return nil
}

// --- Geometry ---

// SetGeometry applies a resize or rotation made by direct manipulation.
func (e *Editor) SetGeometry(id string, x, y, width, height, rotation float64) error {
	obj, ok := e.graph.Object(id)
	if !ok {
		return fmt.Errorf("set geometry %q: %w", id, scene.ErrObjectNotFound)
	}
	if !e.graph.IsInteractive(id) {
		return fmt.Errorf("set geometry %q: %w", id, scene.ErrInvalidOperation)
	}
	if !finite(x, y, width, height, rotation) {
		return fmt.Errorf("set geometry %q: non-finite value: %w", id, scene.ErrInvalidOperation)
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("set geometry %q: negative size: %w", id, scene.ErrInvalidOperation)
	}

	g := &obj.Geometry
	if g.Width > 0 && g.Height > 0 {
		sx, sy := width/g.Width, height/g.Height
		scaleContent(obj, sx, sy)
	}
	g.X, g.Y, g.Width, g.Height, g.Rotation = x, y, width, height, rotation
	return e.commit("transform")
}

// scaleContent rescales what lives inside an object's box.
func scaleContent(obj *document.SceneObject, sx, sy float64) {
	g := &obj.Geometry
	for i := range g.Points {
		g.Points[i].X *= sx
		g.Points[i].Y *= sy
	}
	if g.RX > 0 || g.RY > 0 {
		if obj.Kind == document.KindEllipse {
			g.RX, g.RY = g.RX*sx, g.RY*sy
		}
	}
	for _, m := range obj.Members {
		mg := &m.Geometry
		mg.X, mg.Y = mg.X*sx, mg.Y*sy
		if mg.Width > 0 && mg.Height > 0 {
			scaleContent(m, sx, sy)
		}
		mg.Width, mg.Height = mg.Width*sx, mg.Height*sy
	}
}

// --- Layers ---

func (e *Editor) AddLayer(name string) (*document.Layer, error) {
	if name == "" {
		name = fmt.Sprintf("Layer %d", len(e.graph.Layers())+1)
	}
	l := e.graph.AddLayer(name)
	return l, e.commit("add layer")
}

func (e *Editor) SetCurrentLayer(id string) error {
	if err := e.graph.SetCurrentLayer(id); err != nil {
		return err
	}
	return e.commit("select layer")
}

func (e *Editor) SetLayerVisible(id string, visible bool) error {
	if err := e.graph.SetLayerVisible(id, visible); err != nil {
		return err
	}
	e.sel.Reconcile()
	return e.commit("layer visibility")
}

func (e *Editor) SetLayerLocked(id string, locked bool) error {
	if err := e.graph.SetLayerLocked(id, locked); err != nil {
		return err
	}
	e.sel.Reconcile()
	return e.commit("layer lock")
}

// --- View ---

// SetView pans and zooms. View changes are saved with the next commit.
func (e *Editor) SetView(pan geom.Point, zoom float64) error {
	if !finite(zoom) || zoom <= 0 {
		return fmt.Errorf("zoom %v: %w", zoom, scene.ErrInvalidOperation)
	}
	if !finite(pan.X, pan.Y) {
		return fmt.Errorf("pan %v: %w", pan, scene.ErrInvalidOperation)
	}
	e.view = document.View{Pan: pan, Zoom: zoom}
	e.surface.Redraw()
	return nil
}

// finite reports whether every value can be stored in a project file.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// --- Queries ---

// Render returns the draw commands for the visible board and active guides.
func (e *Editor) Render() []render.DrawCommand {
	return render.CompileDrawCommands(e.graph.PaintOrder(), e.snap.Guides())
}

// RenderJSON is Render serialized for the front-end.
func (e *Editor) RenderJSON() string {
	out, err := render.DrawCommandsToJSON(e.Render())
	if err != nil {
		slog.Error("encode draw commands", "error", err)
	}
	return out
}

// HitTest returns the topmost interactive object under the point.
func (e *Editor) HitTest(x, y float64) (string, bool) {
	return render.HitTest(e.graph.Interactive(), x, y)
}

// SelectionBounds is the union of the selected objects' bounding boxes.
func (e *Editor) SelectionBounds() geom.Rect {
	return render.SelectionBounds(e.sel.Objects())
}

// ExportPNG rasterizes the board at the configured canvas size.
func (e *Editor) ExportPNG(w io.Writer) error {
	return render.Rasterize(w, e.graph.PaintOrder(), render.RasterOptions{
		Width:      int(e.opts.CanvasWidth),
		Height:     int(e.opts.CanvasHeight),
		Background: "#ffffff",
		View:       e.view,
		Images:     e.assets,
	})
}
