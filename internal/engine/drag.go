package engine

import (
	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/render"
)

// dragState tracks a move gesture over the selection.
type dragState struct {
	anchor  geom.Point
	start   geom.Rect
	origins map[string]geom.Point
	exclude map[string]bool
}

// BeginDrag starts moving the selected objects from (x, y).
func (e *Editor) BeginDrag(x, y float64) {
	objs := e.sel.Objects()
	if len(objs) == 0 {
		return
	}
	d := &dragState{
		anchor:  geom.Point{X: x, Y: y},
		start:   render.SelectionBounds(objs),
		origins: make(map[string]geom.Point, len(objs)),
		exclude: make(map[string]bool, len(objs)),
	}
	for _, obj := range objs {
		d.origins[obj.ID] = geom.Point{X: obj.Geometry.X, Y: obj.Geometry.Y}
		d.exclude[obj.ID] = true
	}
	e.drag = d
}

// Dragging reports whether a move gesture is in progress.
func (e *Editor) Dragging() bool { return e.drag != nil }

// Drag moves the selection so its box follows the pointer, then snaps it.
// Each object keeps its offset from the selection box so a snapped edge
// lands exactly on the guide.
func (e *Editor) Drag(x, y float64) {
	d := e.drag
	if d == nil {
		return
	}
	raw := d.start.Translate(x-d.anchor.X, y-d.anchor.Y)
	pos, _ := e.snap.Adjust(raw, d.exclude)

	for id, origin := range d.origins {
		obj, ok := e.graph.Object(id)
		if !ok {
			continue
		}
		obj.Geometry.X = pos.X + (origin.X - d.start.X)
		obj.Geometry.Y = pos.Y + (origin.Y - d.start.Y)
	}
	e.surface.Redraw()
}

// EndDrag finishes the gesture, clearing guides and committing once if
// anything moved.
func (e *Editor) EndDrag() error {
	d := e.drag
	if d == nil {
		return nil
	}
	e.endDrag()
	moved := false
	for id, origin := range d.origins {
		if obj, ok := e.graph.Object(id); ok && positionOf(obj) != origin {
			moved = true
			break
		}
	}
	if !moved {
		e.surface.Redraw()
		return nil
	}
	return e.commit("move")
}

func (e *Editor) endDrag() {
	e.drag = nil
	e.snap.End()
}

func positionOf(obj *document.SceneObject) geom.Point {
	return geom.Point{X: obj.Geometry.X, Y: obj.Geometry.Y}
}
