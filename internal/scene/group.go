package scene

import (
	"fmt"
	"slices"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/typeid"
)

// Group replaces the given objects with a new group that owns them. The
// members must be distinct, interactive and share one layer. Each member's
// geometry is re-expressed relative to the group's bounding box, and the
// group takes the paint position of its front-most member.
func (g *Graph) Group(ids []string) (*document.SceneObject, error) {
	if len(ids) < 2 {
		return nil, fmt.Errorf("group: need at least 2 objects, got %d: %w", len(ids), ErrInvalidOperation)
	}

	var layer *document.Layer
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("group: %q listed twice: %w", id, ErrInvalidOperation)
		}
		seen[id] = true

		obj, ok := g.objects[id]
		if !ok {
			return nil, fmt.Errorf("group: %q: %w", id, ErrObjectNotFound)
		}
		if !g.IsInteractive(id) {
			return nil, fmt.Errorf("group: %q is not interactive: %w", id, ErrInvalidOperation)
		}
		if layer == nil {
			layer = g.layerByID[obj.LayerID]
		} else if obj.LayerID != layer.ID {
			return nil, fmt.Errorf("group: members span layers: %w", ErrInvalidOperation)
		}
	}

	// Members keep their relative paint order.
	var members []*document.SceneObject
	front := -1
	for i, id := range layer.ObjectIDs {
		if seen[id] {
			members = append(members, g.objects[id])
			front = i
		}
	}

	bounds := members[0].Bounds()
	for _, m := range members[1:] {
		bounds = bounds.Union(m.Bounds())
	}

	group := &document.SceneObject{
		ID:   typeid.NewObjectID(),
		Kind: document.KindGroup,
		Geometry: document.Geometry{
			X:      bounds.X,
			Y:      bounds.Y,
			Width:  bounds.Width,
			Height: bounds.Height,
		},
		Style:   document.Style{Opacity: 1},
		LayerID: layer.ID,
		Members: members,
	}
	for _, m := range members {
		m.Translate(-bounds.X, -bounds.Y)
	}

	insertAt := front - (len(members) - 1)
	layer.ObjectIDs = slices.DeleteFunc(layer.ObjectIDs, func(s string) bool { return seen[s] })
	layer.ObjectIDs = slices.Insert(layer.ObjectIDs, insertAt, group.ID)
	g.objects[group.ID] = group

	for _, m := range members {
		delete(g.objects, m.ID)
		g.fireRemoved(m.ID)
	}
	return group, nil
}

// Ungroup dissolves a group, putting each member back at its absolute
// transform in the group's paint position. The group object is destroyed.
func (g *Graph) Ungroup(id string) ([]string, error) {
	group, ok := g.objects[id]
	if !ok {
		return nil, fmt.Errorf("ungroup: %q: %w", id, ErrObjectNotFound)
	}
	if group.Kind != document.KindGroup {
		return nil, fmt.Errorf("ungroup: %q is a %s: %w", id, group.Kind, ErrInvalidOperation)
	}
	if !g.IsInteractive(id) {
		return nil, fmt.Errorf("ungroup: %q is not interactive: %w", id, ErrInvalidOperation)
	}

	layer := g.layerByID[group.LayerID]
	at := slices.Index(layer.ObjectIDs, id)
	gm := group.Geometry

	ids := make([]string, len(group.Members))
	for i, m := range group.Members {
		if gm.Rotation == 0 {
			m.Translate(gm.X, gm.Y)
		} else {
			placeInParent(m, group.Matrix(), gm.Rotation)
		}
		m.LayerID = layer.ID
		g.objects[m.ID] = m
		ids[i] = m.ID
	}

	layer.ObjectIDs = slices.Replace(layer.ObjectIDs, at, at+1, ids...)
	delete(g.objects, id)
	group.Members = nil
	g.fireRemoved(id)
	return ids, nil
}

// placeInParent maps a member through its rotated group's transform. The
// member keeps its size and picks up the group's rotation about its own center.
func placeInParent(m *document.SceneObject, parent geom.Matrix2D, rotation float64) {
	mg := m.Geometry
	cx, cy := parent.TransformPoint(mg.X+mg.Width/2, mg.Y+mg.Height/2)
	m.Geometry.X = cx - mg.Width/2
	m.Geometry.Y = cy - mg.Height/2
	m.Geometry.Rotation = mg.Rotation + rotation
}
