package engine

import (
	"fmt"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/typeid"
)

// pasteOffset is how far each paste lands from the previous one.
const pasteOffset = 10

// Copy stores deep copies of the selection. The board is not changed.
func (e *Editor) Copy() int {
	objs := e.sel.Objects()
	if len(objs) == 0 {
		return 0
	}
	e.clipboard = make([]*document.SceneObject, len(objs))
	for i, obj := range objs {
		e.clipboard[i] = obj.Clone()
	}
	e.pasteCount = 0
	return len(objs)
}

// Paste adds the clipboard to the current layer with fresh ids, offset a
// little further on every paste, and selects the result.
func (e *Editor) Paste() error {
	if len(e.clipboard) == 0 {
		return nil
	}
	e.pasteCount++
	return e.insertCopies(e.clipboard, float64(e.pasteCount*pasteOffset), "paste")
}

// Duplicate copies the selection in place, offset once.
func (e *Editor) Duplicate() error {
	objs := e.sel.Objects()
	if len(objs) == 0 {
		return nil
	}
	return e.insertCopies(objs, pasteOffset, "duplicate")
}

func (e *Editor) insertCopies(src []*document.SceneObject, offset float64, action string) error {
	layer, err := e.editableLayer()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	ids := make([]string, 0, len(src))
	for _, obj := range src {
		c := obj.Clone()
		assignIDs(c)
		c.Translate(offset, offset)
		c.Transient = false
		if err := e.graph.AddObject(c, layer.ID); err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
		ids = append(ids, c.ID)
	}
	e.sel.Set(ids...)
	return e.commit(action)
}

// assignIDs gives obj and all of its members new ids.
func assignIDs(obj *document.SceneObject) {
	obj.ID = typeid.NewObjectID()
	for _, m := range obj.Members {
		assignIDs(m)
	}
}
