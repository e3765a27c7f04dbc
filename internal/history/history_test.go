package history

import (
	"bytes"
	"testing"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/scene"
)

// graphState adapts a scene graph to State for tests.
type graphState struct {
	g *scene.Graph
}

func (s *graphState) Capture() *document.Project { return s.g.Export(document.DefaultView()) }

func (s *graphState) Restore(p *document.Project) error {
	s.g.Replace(p)
	return nil
}

func addRect(t *testing.T, g *scene.Graph, id string) {
	t.Helper()
	obj := &document.SceneObject{
		ID:       id,
		Kind:     document.KindRectangle,
		Geometry: document.Geometry{Width: 10, Height: 10},
		Style:    document.DefaultStyle(),
	}
	if err := g.AddObject(obj, g.CurrentLayer().ID); err != nil {
		t.Fatal(err)
	}
}

func encoded(t *testing.T, g *scene.Graph) []byte {
	t.Helper()
	data, err := document.Encode(g.Export(document.DefaultView()))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestUndoRedoRoundTrip(t *testing.T) {
	g := scene.NewGraph()
	e, err := New(&graphState{g}, 10)
	if err != nil {
		t.Fatal(err)
	}

	var states [][]byte
	states = append(states, encoded(t, g))
	for _, id := range []string{"a", "b", "c", "d"} {
		addRect(t, g, id)
		if err := e.Commit(); err != nil {
			t.Fatal(err)
		}
		states = append(states, encoded(t, g))
	}

	for i := len(states) - 2; i >= 0; i-- {
		ok, err := e.Undo()
		if err != nil || !ok {
			t.Fatalf("undo %d: ok=%v err=%v", i, ok, err)
		}
		if got := encoded(t, g); !bytes.Equal(got, states[i]) {
			t.Fatalf("after undo to %d: scene differs", i)
		}
	}
	if ok, _ := e.Undo(); ok {
		t.Error("undo past the first snapshot")
	}

	for i := 1; i < len(states); i++ {
		if ok, err := e.Redo(); err != nil || !ok {
			t.Fatalf("redo %d: ok=%v err=%v", i, ok, err)
		}
		if got := encoded(t, g); !bytes.Equal(got, states[i]) {
			t.Fatalf("after redo to %d: scene differs", i)
		}
	}
	if ok, _ := e.Redo(); ok {
		t.Error("redo past the last snapshot")
	}
}

func TestCommitTruncatesRedo(t *testing.T) {
	g := scene.NewGraph()
	e, _ := New(&graphState{g}, 10)
	addRect(t, g, "a")
	_ = e.Commit()
	addRect(t, g, "b")
	_ = e.Commit()

	if _, err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	addRect(t, g, "c")
	_ = e.Commit()

	if e.CanRedo() {
		t.Error("redo branch survived a commit")
	}
	if e.Len() != 3 || e.Cursor() != 2 {
		t.Errorf("len=%d cursor=%d, want 3 and 2", e.Len(), e.Cursor())
	}
	if _, ok := g.Object("b"); ok {
		t.Error("undone object reappeared")
	}
}

func TestCapEvictsOldest(t *testing.T) {
	g := scene.NewGraph()
	e, _ := New(&graphState{g}, 3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		addRect(t, g, id)
		if err := e.Commit(); err != nil {
			t.Fatal(err)
		}
	}
	if e.Len() != 3 {
		t.Fatalf("len = %d, want 3", e.Len())
	}
	if e.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", e.Cursor())
	}

	undos := 0
	for e.CanUndo() {
		if _, err := e.Undo(); err != nil {
			t.Fatal(err)
		}
		undos++
	}
	if undos != 2 {
		t.Errorf("undos = %d, want 2", undos)
	}
	// The oldest reachable state has a, b and c.
	if g.Len() != 3 {
		t.Errorf("objects after full undo = %d, want 3", g.Len())
	}
}

func TestIdenticalCommitsKept(t *testing.T) {
	g := scene.NewGraph()
	e, _ := New(&graphState{g}, 10)
	_ = e.Commit()
	_ = e.Commit()
	if e.Len() != 3 {
		t.Errorf("len = %d, want 3", e.Len())
	}
}

func TestDefaultMax(t *testing.T) {
	e, err := New(&graphState{scene.NewGraph()}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e.Max() != DefaultMax {
		t.Errorf("max = %d", e.Max())
	}
}
