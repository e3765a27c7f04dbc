package render

import (
	"math"

	"github.com/inamate/whiteboard/internal/document"
)

// Magic number for bezier approximation of a circle/ellipse
// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
const kappa = 0.5522847498

// ObjectPath returns the outline of an object in its local box coordinates.
// Text, images and groups have no path.
func ObjectPath(obj *document.SceneObject) []PathCommand {
	g := obj.Geometry
	switch obj.Kind {
	case document.KindRectangle, document.KindFrame:
		if g.RX > 0 || g.RY > 0 {
			return roundedRectPath(g.Width, g.Height, g.RX, g.RY)
		}
		return rectPath(g.Width, g.Height)
	case document.KindEllipse:
		return ellipsePath(g.Width/2, g.Height/2, g.Width/2, g.Height/2)
	case document.KindLine, document.KindPath:
		return polylinePath(g)
	case document.KindArrow:
		return arrowPath(g, obj.Style.StrokeWidth)
	case document.KindText, document.KindImage, document.KindGroup:
		return nil
	default:
		return nil
	}
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

// roundedRectPath draws each corner as a quarter ellipse.
func roundedRectPath(w, h, rx, ry float64) []PathCommand {
	rx = math.Min(rx, w/2)
	ry = math.Min(ry, h/2)
	kx, ky := rx*kappa, ry*kappa
	return []PathCommand{
		{"M", rx, 0.0},
		{"L", w - rx, 0.0},
		{"C", w - rx + kx, 0.0, w, ry - ky, w, ry},
		{"L", w, h - ry},
		{"C", w, h - ry + ky, w - rx + kx, h, w - rx, h},
		{"L", rx, h},
		{"C", rx - kx, h, 0.0, h - ry + ky, 0.0, h - ry},
		{"L", 0.0, ry},
		{"C", 0.0, ry - ky, rx - kx, 0.0, rx, 0.0},
		{"Z"},
	}
}

// ellipsePath approximates an ellipse centered on (cx, cy) with four beziers.
func ellipsePath(cx, cy, rx, ry float64) []PathCommand {
	kx, ky := rx*kappa, ry*kappa
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

func polylinePath(g document.Geometry) []PathCommand {
	if len(g.Points) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(g.Points))
	path = append(path, PathCommand{"M", g.Points[0].X, g.Points[0].Y})
	for _, p := range g.Points[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	return path
}

// arrowPath is the shaft followed by two barbs at the end point, oriented
// along the head angle.
func arrowPath(g document.Geometry, strokeWidth float64) []PathCommand {
	path := polylinePath(g)
	if len(g.Points) < 2 {
		return path
	}
	tip := g.Points[len(g.Points)-1]
	size := math.Max(10, strokeWidth*3)
	angle := g.HeadAngle * math.Pi / 180
	for _, spread := range []float64{math.Pi / 6, -math.Pi / 6} {
		a := angle + math.Pi + spread
		path = append(path,
			PathCommand{"M", tip.X, tip.Y},
			PathCommand{"L", tip.X + size*math.Cos(a), tip.Y + size*math.Sin(a)},
		)
	}
	return path
}
