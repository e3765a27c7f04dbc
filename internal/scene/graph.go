package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/typeid"
)

var (
	ErrObjectNotFound   = errors.New("object not found")
	ErrLayerNotFound    = errors.New("layer not found")
	ErrDuplicateObject  = errors.New("object already in scene")
	ErrInvalidOperation = errors.New("invalid operation")
)

// Direction is the target of a reorder within a layer.
type Direction int

const (
	// ToFront moves an object to the end of its layer's sequence (painted last).
	ToFront Direction = iota
	// ToBack moves an object to the start of its layer's sequence.
	ToBack
)

// Graph owns the top-level scene objects and the ordered layers that hold
// them. It is not safe for concurrent use; all mutation happens on the
// editor's event goroutine.
type Graph struct {
	objects   map[string]*document.SceneObject
	layers    []*document.Layer
	layerByID map[string]*document.Layer
	current   string

	removeHooks []func(id string)
}

// NewGraph creates a graph with a single empty layer.
func NewGraph() *Graph {
	g := &Graph{
		objects:   make(map[string]*document.SceneObject),
		layerByID: make(map[string]*document.Layer),
	}
	g.AddLayer("Layer 1")
	return g
}

// OnRemove registers fn to run whenever an object stops being a top-level
// scene object (deleted, grouped away, or ungrouped).
func (g *Graph) OnRemove(fn func(id string)) {
	g.removeHooks = append(g.removeHooks, fn)
}

func (g *Graph) fireRemoved(id string) {
	for _, fn := range g.removeHooks {
		fn(id)
	}
}

// --- Layers ---

// AddLayer appends a new visible, unlocked layer on top and makes it current.
func (g *Graph) AddLayer(name string) *document.Layer {
	l := &document.Layer{
		ID:        typeid.NewLayerID(),
		Name:      name,
		Visible:   true,
		ObjectIDs: []string{},
	}
	g.layers = append(g.layers, l)
	g.layerByID[l.ID] = l
	g.current = l.ID
	return l
}

// Layers returns the layers bottom to top. Callers must not mutate them.
func (g *Graph) Layers() []*document.Layer {
	return g.layers
}

func (g *Graph) Layer(id string) (*document.Layer, bool) {
	l, ok := g.layerByID[id]
	return l, ok
}

// CurrentLayer is the layer new objects are drawn into.
func (g *Graph) CurrentLayer() *document.Layer {
	return g.layerByID[g.current]
}

func (g *Graph) SetCurrentLayer(id string) error {
	if _, ok := g.layerByID[id]; !ok {
		return fmt.Errorf("set current layer %q: %w", id, ErrLayerNotFound)
	}
	g.current = id
	return nil
}

func (g *Graph) SetLayerVisible(id string, visible bool) error {
	l, ok := g.layerByID[id]
	if !ok {
		return fmt.Errorf("set layer visibility %q: %w", id, ErrLayerNotFound)
	}
	l.Visible = visible
	return nil
}

func (g *Graph) SetLayerLocked(id string, locked bool) error {
	l, ok := g.layerByID[id]
	if !ok {
		return fmt.Errorf("set layer lock %q: %w", id, ErrLayerNotFound)
	}
	l.Locked = locked
	return nil
}

// --- Objects ---

// AddObject appends obj to the end of the layer's sequence.
func (g *Graph) AddObject(obj *document.SceneObject, layerID string) error {
	l, ok := g.layerByID[layerID]
	if !ok {
		return fmt.Errorf("add object %q: %w", obj.ID, ErrLayerNotFound)
	}
	if _, dup := g.objects[obj.ID]; dup {
		return fmt.Errorf("add object %q: %w", obj.ID, ErrDuplicateObject)
	}
	obj.LayerID = layerID
	g.objects[obj.ID] = obj
	l.ObjectIDs = append(l.ObjectIDs, obj.ID)
	return nil
}

// Object looks up a top-level object. Group members are not addressable.
func (g *Graph) Object(id string) (*document.SceneObject, bool) {
	obj, ok := g.objects[id]
	return obj, ok
}

// Len returns the number of top-level objects.
func (g *Graph) Len() int {
	return len(g.objects)
}

// RemoveObject removes the object from its layer and from the scene.
func (g *Graph) RemoveObject(id string) error {
	obj, ok := g.objects[id]
	if !ok {
		return fmt.Errorf("remove object %q: %w", id, ErrObjectNotFound)
	}
	if l, ok := g.layerByID[obj.LayerID]; ok {
		l.ObjectIDs = slices.DeleteFunc(l.ObjectIDs, func(s string) bool { return s == id })
	}
	delete(g.objects, id)
	g.fireRemoved(id)
	return nil
}

// Reorder moves the object to the head or tail of its layer's sequence.
func (g *Graph) Reorder(id string, dir Direction) error {
	obj, ok := g.objects[id]
	if !ok {
		return fmt.Errorf("reorder %q: %w", id, ErrObjectNotFound)
	}
	l := g.layerByID[obj.LayerID]
	ids := slices.DeleteFunc(l.ObjectIDs, func(s string) bool { return s == id })
	switch dir {
	case ToFront:
		l.ObjectIDs = append(ids, id)
	case ToBack:
		l.ObjectIDs = slices.Insert(ids, 0, id)
	default:
		return fmt.Errorf("reorder %q: unknown direction %d: %w", id, dir, ErrInvalidOperation)
	}
	return nil
}

// Clear removes every object from every layer. Layers are kept.
func (g *Graph) Clear() {
	for _, l := range g.layers {
		ids := l.ObjectIDs
		l.ObjectIDs = []string{}
		for _, id := range ids {
			delete(g.objects, id)
			g.fireRemoved(id)
		}
	}
}

// --- Queries ---

// All returns every top-level object in paint order, bottom layer first.
func (g *Graph) All() []*document.SceneObject {
	out := make([]*document.SceneObject, 0, len(g.objects))
	for _, l := range g.layers {
		for _, id := range l.ObjectIDs {
			out = append(out, g.objects[id])
		}
	}
	return out
}

// PaintOrder returns the objects of visible layers in paint order.
func (g *Graph) PaintOrder() []*document.SceneObject {
	out := make([]*document.SceneObject, 0, len(g.objects))
	for _, l := range g.layers {
		if !l.Visible {
			continue
		}
		for _, id := range l.ObjectIDs {
			out = append(out, g.objects[id])
		}
	}
	return out
}

// Interactive returns the objects that can be selected, hit and snapped
// against: visible, unlocked layer and not transient. Paint order.
func (g *Graph) Interactive() []*document.SceneObject {
	out := make([]*document.SceneObject, 0, len(g.objects))
	for _, l := range g.layers {
		if !l.Visible || l.Locked {
			continue
		}
		for _, id := range l.ObjectIDs {
			if obj := g.objects[id]; !obj.Transient {
				out = append(out, obj)
			}
		}
	}
	return out
}

// IsVisible reports whether the object exists and its layer is shown.
func (g *Graph) IsVisible(id string) bool {
	obj, ok := g.objects[id]
	if !ok {
		return false
	}
	l := g.layerByID[obj.LayerID]
	return l != nil && l.Visible
}

// IsInteractive reports whether the object can be selected or manipulated.
func (g *Graph) IsInteractive(id string) bool {
	obj, ok := g.objects[id]
	if !ok || obj.Transient {
		return false
	}
	l := g.layerByID[obj.LayerID]
	return l != nil && l.Visible && !l.Locked
}

// paintIndex returns the object's position in global paint order.
func (g *Graph) paintIndex(id string) int {
	n := 0
	for _, l := range g.layers {
		for _, oid := range l.ObjectIDs {
			if oid == id {
				return n
			}
			n++
		}
	}
	return -1
}

// --- Snapshots ---

// Export returns a self-contained copy of the scene. Transient objects are skipped.
func (g *Graph) Export(view document.View) *document.Project {
	p := &document.Project{
		Version: document.FormatVersion,
		Objects: make([]*document.SceneObject, 0, len(g.objects)),
		Layers:  make([]*document.Layer, 0, len(g.layers)),
		View:    view,
	}
	for _, l := range g.layers {
		lc := l.Clone()
		lc.ObjectIDs = lc.ObjectIDs[:0]
		for _, id := range l.ObjectIDs {
			obj := g.objects[id]
			if obj.Transient {
				continue
			}
			c := obj.Clone()
			c.ZOrder = len(lc.ObjectIDs)
			lc.ObjectIDs = append(lc.ObjectIDs, id)
			p.Objects = append(p.Objects, c)
		}
		p.Layers = append(p.Layers, lc)
	}
	return p
}

// Replace swaps the whole scene for the contents of p, which must already
// be validated. The current layer is kept when it still exists.
func (g *Graph) Replace(p *document.Project) {
	g.objects = make(map[string]*document.SceneObject, len(p.Objects))
	g.layers = make([]*document.Layer, 0, len(p.Layers))
	g.layerByID = make(map[string]*document.Layer, len(p.Layers))

	for _, l := range p.Layers {
		lc := l.Clone()
		g.layers = append(g.layers, lc)
		g.layerByID[lc.ID] = lc
	}
	for _, obj := range p.Objects {
		g.objects[obj.ID] = obj.Clone()
	}

	if _, ok := g.layerByID[g.current]; !ok {
		g.current = ""
		if len(g.layers) > 0 {
			g.current = g.layers[len(g.layers)-1].ID
		}
	}
	if len(g.layers) == 0 {
		g.AddLayer("Layer 1")
	}
}
