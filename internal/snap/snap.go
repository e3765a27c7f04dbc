// Package snap adjusts the position of a dragged selection to the grid and
// to the edges and centers of the other objects on the board.
package snap

import (
	"math"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
)

// Axis is the orientation of a guide line.
type Axis string

const (
	Vertical   Axis = "vertical"
	Horizontal Axis = "horizontal"
)

// GuideLine marks an alignment found during a drag. A vertical guide sits
// at x = Coord, a horizontal one at y = Coord.
type GuideLine struct {
	Axis  Axis    `json:"axis"`
	Coord float64 `json:"coord"`
}

type Options struct {
	GridEnabled bool
	GridSize    float64
	// Threshold is the largest distance, in scene units, that still snaps.
	Threshold float64
}

func DefaultOptions() Options {
	return Options{GridEnabled: true, GridSize: 20, Threshold: 8}
}

// Scene is the view of the board the engine aligns against.
type Scene interface {
	Interactive() []*document.SceneObject
}

// Engine computes snapped positions. It keeps the guides of the last
// adjustment until End is called.
type Engine struct {
	scene  Scene
	opts   Options
	guides []GuideLine
}

func New(scene Scene, opts Options) *Engine {
	return &Engine{scene: scene, opts: opts}
}

func (e *Engine) Options() Options { return e.opts }

func (e *Engine) SetOptions(opts Options) { e.opts = opts }

// Guides returns the guides produced by the last call to Adjust.
func (e *Engine) Guides() []GuideLine { return e.guides }

// End clears the guides at the end of a gesture.
func (e *Engine) End() { e.guides = nil }

// match is the best alignment found on one axis.
type match struct {
	pos   float64 // new top-left coordinate on this axis
	coord float64 // where the guide goes
	dist  float64
	ok    bool
}

// Adjust returns the snapped top-left corner for a selection whose
// bounding box, at its raw dragged position, is moving. Objects whose ids
// are in exclude are not aligned against. Grid snap applies per axis and
// sibling alignment overrides it on any axis where a sibling is in range.
// A degenerate box is returned unchanged.
func (e *Engine) Adjust(moving geom.Rect, exclude map[string]bool) (geom.Point, []GuideLine) {
	e.guides = nil
	raw := geom.Point{X: moving.X, Y: moving.Y}
	if degenerate(moving) {
		return raw, nil
	}

	pos := geom.Point{X: e.grid(raw.X), Y: e.grid(raw.Y)}

	var mx, my match
	for _, obj := range e.scene.Interactive() {
		if exclude[obj.ID] {
			continue
		}
		b := obj.Bounds()
		if degenerate(b) {
			continue
		}
		mx = e.best(mx, refs(moving.Left(), moving.Width), refs(b.Left(), b.Width))
		my = e.best(my, refs(moving.Top(), moving.Height), refs(b.Top(), b.Height))
	}

	if mx.ok {
		pos.X = mx.pos
		e.guides = append(e.guides, GuideLine{Axis: Vertical, Coord: mx.coord})
	}
	if my.ok {
		pos.Y = my.pos
		e.guides = append(e.guides, GuideLine{Axis: Horizontal, Coord: my.coord})
	}
	return pos, e.guides
}

// grid snaps one coordinate to the nearest grid line when close enough,
// and otherwise to the nearest whole unit.
func (e *Engine) grid(v float64) float64 {
	if e.opts.GridEnabled && e.opts.GridSize > 0 {
		c := math.Round(v/e.opts.GridSize) * e.opts.GridSize
		if math.Abs(c-v) < e.opts.Threshold {
			return c
		}
	}
	return math.Round(v)
}

// refs returns the start, center and end of a span along with their
// offsets from the start.
func refs(start, size float64) [3][2]float64 {
	return [3][2]float64{
		{start, 0},
		{start + size/2, size / 2},
		{start + size, size},
	}
}

// best compares every moving reference against every sibling reference and
// keeps the strictly closer candidate, so ties go to the earlier sibling.
func (e *Engine) best(cur match, moving, sibling [3][2]float64) match {
	for _, m := range moving {
		for _, s := range sibling {
			d := math.Abs(m[0] - s[0])
			if d > e.opts.Threshold {
				continue
			}
			if cur.ok && d >= cur.dist {
				continue
			}
			cur = match{pos: s[0] - m[1], coord: s[0], dist: d, ok: true}
		}
	}
	return cur
}

// degenerate reports a box with no extent at all, or a non-finite one.
func degenerate(r geom.Rect) bool {
	return !r.IsFinite() || (r.Width <= 0 && r.Height <= 0)
}
