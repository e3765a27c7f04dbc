package snap

import (
	"math"
	"testing"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
)

type objects []*document.SceneObject

func (o objects) Interactive() []*document.SceneObject { return o }

func box(id string, x, y, w, h float64) *document.SceneObject {
	return &document.SceneObject{
		ID:       id,
		Kind:     document.KindRectangle,
		Geometry: document.Geometry{X: x, Y: y, Width: w, Height: h},
	}
}

func TestGridSnap(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		in   geom.Point
		want geom.Point
	}{
		{"both axes", Options{GridEnabled: true, GridSize: 20, Threshold: 8}, geom.Point{X: 57, Y: 41}, geom.Point{X: 60, Y: 40}},
		{"out of range rounds", Options{GridEnabled: true, GridSize: 40, Threshold: 5}, geom.Point{X: 19.6, Y: 80.2}, geom.Point{X: 20, Y: 80}},
		{"one axis only", Options{GridEnabled: true, GridSize: 20, Threshold: 2}, geom.Point{X: 50.4, Y: 39}, geom.Point{X: 50, Y: 40}},
		{"disabled", Options{GridEnabled: false, GridSize: 20, Threshold: 8}, geom.Point{X: 57.3, Y: 41.6}, geom.Point{X: 57, Y: 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(objects{}, tt.opts)
			got, guides := e.Adjust(geom.Rect{X: tt.in.X, Y: tt.in.Y, Width: 30, Height: 30}, nil)
			if got != tt.want {
				t.Errorf("Adjust(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if len(guides) != 0 {
				t.Errorf("unexpected guides %v", guides)
			}
		})
	}
}

func TestAlignLeftToRightIsExact(t *testing.T) {
	b := box("b", 10.1, 0.7, 37.3, 50)
	e := New(objects{b}, Options{GridEnabled: true, GridSize: 20, Threshold: 8})

	moving := geom.Rect{X: b.Bounds().Right() + 3.3, Y: 300, Width: 30, Height: 30}
	got, guides := e.Adjust(moving, map[string]bool{"a": true})

	if got.X != b.Bounds().Right() {
		t.Errorf("left = %v, want exactly %v", got.X, b.Bounds().Right())
	}
	if got.Y != 300 {
		t.Errorf("y = %v, want grid 300", got.Y)
	}
	if len(guides) != 1 || guides[0] != (GuideLine{Axis: Vertical, Coord: b.Bounds().Right()}) {
		t.Errorf("guides = %v", guides)
	}
	if len(e.Guides()) != 1 {
		t.Errorf("engine did not keep guides")
	}
	e.End()
	if e.Guides() != nil {
		t.Errorf("guides not cleared")
	}
}

func TestAlignBothAxes(t *testing.T) {
	b := box("b", 100, 100, 50, 50)
	e := New(objects{b}, Options{Threshold: 6})

	// Center of the moving box is 4 right of b's center, top is 3 below b's bottom.
	got, guides := e.Adjust(geom.Rect{X: 119, Y: 153, Width: 20, Height: 10}, nil)
	if got.X != 115 || got.Y != 150 {
		t.Errorf("got %v, want (115, 150)", got)
	}
	if len(guides) != 2 {
		t.Fatalf("guides = %v", guides)
	}
	if guides[0] != (GuideLine{Vertical, 125}) || guides[1] != (GuideLine{Horizontal, 150}) {
		t.Errorf("guides = %v", guides)
	}
}

func TestNearestAndTieBreak(t *testing.T) {
	first := box("first", 0, 0, 50, 10)   // right edge 50
	second := box("second", 56, 500, 10, 10) // left edge 56
	near := box("near", 0, 900, 52, 10)   // right edge 52

	e := New(objects{first, second}, Options{Threshold: 8})
	got, _ := e.Adjust(geom.Rect{X: 53, Y: 300, Width: 1000, Height: 1}, nil)
	if got.X != 50 {
		t.Errorf("tie: x = %v, want 50 from the earlier sibling", got.X)
	}

	e = New(objects{first, second, near}, Options{Threshold: 8})
	got, _ = e.Adjust(geom.Rect{X: 53, Y: 300, Width: 1000, Height: 1}, nil)
	if got.X != 52 {
		t.Errorf("nearest: x = %v, want 52", got.X)
	}
}

func TestExcludedAndDegenerate(t *testing.T) {
	self := box("self", 0, 0, 30, 30)
	dot := box("dot", 42, 42, 0, 0)
	e := New(objects{self, dot}, Options{Threshold: 8})

	got, guides := e.Adjust(geom.Rect{X: 3, Y: 3, Width: 30, Height: 30}, map[string]bool{"self": true})
	if got != (geom.Point{X: 3, Y: 3}) || len(guides) != 0 {
		t.Errorf("got %v %v, want no snap", got, guides)
	}

	raw := geom.Rect{X: 12.5, Y: 7.25}
	got, guides = e.Adjust(raw, nil)
	if got != (geom.Point{X: 12.5, Y: 7.25}) || guides != nil {
		t.Errorf("degenerate box snapped to %v", got)
	}

	got, _ = e.Adjust(geom.Rect{X: math.NaN(), Width: 10, Height: 10}, nil)
	if !math.IsNaN(got.X) {
		t.Errorf("non-finite box adjusted to %v", got)
	}
}
