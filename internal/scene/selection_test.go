package scene

import (
	"slices"
	"testing"
)

func TestSelectionFollowsRemoval(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10), rect("b", 0, 0, 10, 10), rect("c", 0, 0, 10, 10))
	s := NewSelection(g)

	s.Set("c", "a", "missing")
	if got := s.IDs(); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("ids = %v", got)
	}

	if err := g.RemoveObject("a"); err != nil {
		t.Fatal(err)
	}
	if s.Contains("a") {
		t.Error("selection still holds removed object")
	}

	if _, err := g.Group([]string{"b", "c"}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("grouped member still selected: %v", s.IDs())
	}
}

func TestDeleteSelectedNotifiesOnce(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10), rect("b", 0, 0, 10, 10), rect("c", 0, 0, 10, 10))
	s := NewSelection(g)
	s.Set("a", "b")

	var calls [][]string
	unsub := s.Subscribe(func(ids []string) { calls = append(calls, ids) })
	defer unsub()

	deleted := s.DeleteSelected()
	if !slices.Equal(deleted, []string{"a", "b"}) {
		t.Errorf("deleted = %v", deleted)
	}
	if len(calls) != 1 || len(calls[0]) != 0 {
		t.Errorf("notifications = %v, want one empty", calls)
	}
	if got := ids(g.All()); !slices.Equal(got, []string{"c"}) {
		t.Errorf("remaining = %v", got)
	}
	if s.DeleteSelected() != nil {
		t.Error("delete on empty selection returned ids")
	}
}

func TestSelectionIgnoresLockedLayer(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10))
	s := NewSelection(g)
	s.Set("a")

	if err := g.SetLayerLocked(g.CurrentLayer().ID, true); err != nil {
		t.Fatal(err)
	}
	s.Reconcile()
	if s.Len() != 0 {
		t.Errorf("locked object still selected")
	}
	s.Add("a")
	if s.Len() != 0 {
		t.Errorf("locked object became selectable")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, rect("a", 0, 0, 10, 10))
	s := NewSelection(g)

	n := 0
	unsub := s.Subscribe(func([]string) { n++ })
	s.Set("a")
	s.Set("a")
	unsub()
	s.Clear()
	if n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
}
