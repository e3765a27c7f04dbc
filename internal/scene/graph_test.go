package scene

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/inamate/whiteboard/internal/document"
)

func rect(id string, x, y, w, h float64) *document.SceneObject {
	return &document.SceneObject{
		ID:       id,
		Kind:     document.KindRectangle,
		Geometry: document.Geometry{X: x, Y: y, Width: w, Height: h},
		Style:    document.DefaultStyle(),
	}
}

func mustAdd(t *testing.T, g *Graph, objs ...*document.SceneObject) {
	t.Helper()
	for _, o := range objs {
		if err := g.AddObject(o, g.CurrentLayer().ID); err != nil {
			t.Fatalf("add %s: %v", o.ID, err)
		}
	}
}

func ids(objs []*document.SceneObject) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.ID
	}
	return out
}

func TestAddRemoveReorder(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10), rect("b", 0, 0, 10, 10), rect("c", 0, 0, 10, 10))

	if got := ids(g.PaintOrder()); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("paint order = %v", got)
	}
	if err := g.AddObject(rect("a", 0, 0, 1, 1), g.CurrentLayer().ID); !errors.Is(err, ErrDuplicateObject) {
		t.Errorf("duplicate add: got %v", err)
	}

	if err := g.Reorder("a", ToFront); err != nil {
		t.Fatal(err)
	}
	if got := ids(g.PaintOrder()); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Errorf("after ToFront = %v", got)
	}
	if err := g.Reorder("c", ToBack); err != nil {
		t.Fatal(err)
	}
	if got := ids(g.PaintOrder()); !slices.Equal(got, []string{"c", "b", "a"}) {
		t.Errorf("after ToBack = %v", got)
	}

	if err := g.RemoveObject("b"); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveObject("b"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("second remove: got %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}
}

func TestLayerFlags(t *testing.T) {
	g := NewGraph()
	bottom := g.CurrentLayer()
	mustAdd(t, g, rect("a", 0, 0, 10, 10))
	top := g.AddLayer("Layer 2")
	mustAdd(t, g, rect("b", 0, 0, 10, 10))

	if got := ids(g.PaintOrder()); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("paint order = %v", got)
	}

	if err := g.SetLayerLocked(bottom.ID, true); err != nil {
		t.Fatal(err)
	}
	if g.IsInteractive("a") {
		t.Error("object on locked layer is interactive")
	}
	if got := ids(g.Interactive()); !slices.Equal(got, []string{"b"}) {
		t.Errorf("interactive = %v", got)
	}
	if got := ids(g.PaintOrder()); len(got) != 2 {
		t.Errorf("locked layer should still paint, got %v", got)
	}

	if err := g.SetLayerVisible(top.ID, false); err != nil {
		t.Fatal(err)
	}
	if got := ids(g.PaintOrder()); !slices.Equal(got, []string{"a"}) {
		t.Errorf("hidden layer painted: %v", got)
	}
	if g.IsInteractive("b") {
		t.Error("object on hidden layer is interactive")
	}

	if err := g.SetLayerVisible("layer_missing", true); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("unknown layer: got %v", err)
	}
}

func TestTransientExcluded(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10))
	tmp := rect("tmp", 0, 0, 10, 10)
	tmp.Transient = true
	mustAdd(t, g, tmp)

	if got := ids(g.Interactive()); !slices.Equal(got, []string{"a"}) {
		t.Errorf("interactive = %v", got)
	}
	p := g.Export(document.DefaultView())
	if len(p.Objects) != 1 || len(p.Layers[0].ObjectIDs) != 1 {
		t.Errorf("export kept transient object: %d objects", len(p.Objects))
	}
}

func TestGroupUngroupRoundTrip(t *testing.T) {
	g := NewGraph()
	a := rect("a", 10, 20, 30, 40)
	b := rect("b", 100, 50, 20, 20)
	b.Geometry.Rotation = 30
	c := rect("c", 500, 500, 5, 5)
	mustAdd(t, g, a, b, c)

	before := map[string]document.Geometry{"a": a.Geometry, "b": b.Geometry}

	grp, err := g.Group([]string{"b", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Object("a"); ok {
		t.Error("member still top-level after grouping")
	}
	if got := grp.MemberIDs(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("members = %v", got)
	}
	if got := ids(g.PaintOrder()); !slices.Equal(got, []string{grp.ID, "c"}) {
		t.Errorf("paint order = %v", got)
	}

	out, err := g.Ungroup(grp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out, []string{"a", "b"}) {
		t.Errorf("ungroup ids = %v", out)
	}
	if _, ok := g.Object(grp.ID); ok {
		t.Error("group survives ungroup")
	}
	for id, want := range before {
		obj, ok := g.Object(id)
		if !ok {
			t.Fatalf("%s missing after ungroup", id)
		}
		got := obj.Geometry
		if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 ||
			got.Width != want.Width || got.Height != want.Height || got.Rotation != want.Rotation {
			t.Errorf("%s geometry = %+v, want %+v", id, got, want)
		}
	}
	if got := ids(g.PaintOrder()); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("paint order = %v", got)
	}
}

func TestUngroupRotatedGroup(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10), rect("b", 90, 0, 10, 10))
	grp, err := g.Group([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	grp.Geometry.Rotation = 180

	if _, err := g.Ungroup(grp.ID); err != nil {
		t.Fatal(err)
	}
	a, _ := g.Object("a")
	if math.Abs(a.Geometry.X-90) > 1e-9 || math.Abs(a.Geometry.Y) > 1e-9 || a.Geometry.Rotation != 180 {
		t.Errorf("a = %+v, want mirrored to x=90 with rotation 180", a.Geometry)
	}
}

func TestGroupInvalid(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10), rect("b", 0, 0, 10, 10))
	g.AddLayer("Layer 2")
	mustAdd(t, g, rect("c", 0, 0, 10, 10))

	tests := []struct {
		name string
		ids  []string
	}{
		{"single", []string{"a"}},
		{"duplicate", []string{"a", "a"}},
		{"across layers", []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Group(tt.ids); !errors.Is(err, ErrInvalidOperation) {
				t.Errorf("got %v, want ErrInvalidOperation", err)
			}
			if g.Len() != 3 {
				t.Errorf("scene changed: %d objects", g.Len())
			}
		})
	}

	if _, err := g.Ungroup("a"); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("ungroup non-group: got %v", err)
	}
}

func TestReplaceKeepsCurrentLayer(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10))
	cur := g.CurrentLayer().ID
	p := g.Export(document.DefaultView())

	g.Clear()
	if g.Len() != 0 || len(g.Layers()) != 1 {
		t.Fatalf("clear: %d objects, %d layers", g.Len(), len(g.Layers()))
	}
	g.Replace(p)
	if g.CurrentLayer().ID != cur {
		t.Errorf("current layer = %s, want %s", g.CurrentLayer().ID, cur)
	}
	if _, ok := g.Object("a"); !ok {
		t.Error("object not restored")
	}
}
