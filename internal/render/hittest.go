package render

import (
	"math"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
)

// HitTolerance is how far outside a thin outline a press still hits it.
const HitTolerance = 4.0

// HitTest returns the topmost object containing the point. objs must be
// in paint order; they are traversed front to back.
func HitTest(objs []*document.SceneObject, x, y float64) (string, bool) {
	for i := len(objs) - 1; i >= 0; i-- {
		if hitObject(objs[i], x, y) {
			return objs[i].ID, true
		}
	}
	return "", false
}

// hitObject tests the point in the object's local coordinates so rotated
// objects hit on their real outline rather than their bounding box.
func hitObject(obj *document.SceneObject, x, y float64) bool {
	m := obj.Matrix()
	if m.Determinant() == 0 {
		return false
	}
	lx, ly := m.Invert().TransformPoint(x, y)
	g := obj.Geometry
	pad := math.Max(obj.Style.StrokeWidth/2, 0)

	switch obj.Kind {
	case document.KindRectangle, document.KindFrame, document.KindText,
		document.KindImage, document.KindGroup:
		return lx >= -pad && lx <= g.Width+pad && ly >= -pad && ly <= g.Height+pad
	case document.KindEllipse:
		rx, ry := g.Width/2+pad, g.Height/2+pad
		if rx <= 0 || ry <= 0 {
			return false
		}
		dx, dy := (lx-g.Width/2)/rx, (ly-g.Height/2)/ry
		return dx*dx+dy*dy <= 1
	case document.KindLine, document.KindArrow, document.KindPath:
		tol := math.Max(pad, HitTolerance)
		for i := 1; i < len(g.Points); i++ {
			if segmentDistance(lx, ly, g.Points[i-1], g.Points[i]) <= tol {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func segmentDistance(x, y float64, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(x-a.X, y-a.Y)
	}
	t := math.Max(0, math.Min(1, ((x-a.X)*dx+(y-a.Y)*dy)/l2))
	return math.Hypot(x-(a.X+t*dx), y-(a.Y+t*dy))
}

// SelectionBounds returns the combined bounding box of the given objects.
func SelectionBounds(objs []*document.SceneObject) geom.Rect {
	var result geom.Rect
	for i, obj := range objs {
		if i == 0 {
			result = obj.Bounds()
			continue
		}
		result = result.Union(obj.Bounds())
	}
	return result
}
