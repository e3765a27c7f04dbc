package scene

import (
	"maps"
	"slices"

	"github.com/inamate/whiteboard/internal/document"
)

// Selection is the set of currently selected top-level object ids. It drops
// ids automatically when the graph removes the objects they name, so it
// never refers to a deleted object.
type Selection struct {
	graph *Graph
	ids   map[string]struct{}

	subs    map[int]func(ids []string)
	nextSub int
	muted   bool
}

// NewSelection creates an empty selection bound to g.
func NewSelection(g *Graph) *Selection {
	s := &Selection{
		graph: g,
		ids:   make(map[string]struct{}),
		subs:  make(map[int]func([]string)),
	}
	g.OnRemove(func(id string) {
		if _, ok := s.ids[id]; ok {
			delete(s.ids, id)
			s.notify()
		}
	})
	return s
}

// Subscribe registers fn to be called with the new selection after every
// change. The returned func removes the subscription.
func (s *Selection) Subscribe(fn func(ids []string)) func() {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Selection) notify() {
	if s.muted {
		return
	}
	ids := s.IDs()
	for _, k := range slices.Sorted(maps.Keys(s.subs)) {
		s.subs[k](ids)
	}
}

// Set replaces the selection. Ids that are not interactive are ignored.
func (s *Selection) Set(ids ...string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if s.graph.IsInteractive(id) {
			next[id] = struct{}{}
		}
	}
	if sameKeys(s.ids, next) {
		return
	}
	s.ids = next
	s.notify()
}

// Add extends the selection with id.
func (s *Selection) Add(id string) {
	if _, ok := s.ids[id]; ok || !s.graph.IsInteractive(id) {
		return
	}
	s.ids[id] = struct{}{}
	s.notify()
}

// Remove drops id from the selection.
func (s *Selection) Remove(id string) {
	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	s.notify()
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id string) {
	if s.Contains(id) {
		s.Remove(id)
	} else {
		s.Add(id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	if len(s.ids) == 0 {
		return
	}
	s.ids = make(map[string]struct{})
	s.notify()
}

func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in paint order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b string) int {
		return s.graph.paintIndex(a) - s.graph.paintIndex(b)
	})
	return out
}

// Objects returns the selected objects in paint order.
func (s *Selection) Objects() []*document.SceneObject {
	ids := s.IDs()
	out := make([]*document.SceneObject, 0, len(ids))
	for _, id := range ids {
		if obj, ok := s.graph.Object(id); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Reconcile drops ids that no longer name an interactive object. It runs
// after the scene is restored from a snapshot or a layer is hidden or locked.
func (s *Selection) Reconcile() {
	changed := false
	for id := range s.ids {
		if !s.graph.IsInteractive(id) {
			delete(s.ids, id)
			changed = true
		}
	}
	if changed {
		s.notify()
	}
}

// DeleteSelected removes every selected object from the scene and empties
// the selection. Subscribers see a single change.
func (s *Selection) DeleteSelected() []string {
	ids := s.IDs()
	if len(ids) == 0 {
		return nil
	}
	s.muted = true
	for _, id := range ids {
		_ = s.graph.RemoveObject(id)
	}
	s.ids = make(map[string]struct{})
	s.muted = false
	s.notify()
	return ids
}

func sameKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
