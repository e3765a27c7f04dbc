package engine

import (
	"strings"

	"github.com/inamate/whiteboard/internal/tool"
)

// Key is a keyboard event as reported by the browser.
type Key struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
}

var toolKeys = map[string]tool.Tool{
	"v": tool.Select,
	"p": tool.Pencil,
	"t": tool.Text,
	"r": tool.Rect,
	"o": tool.Oval,
}

// HandleKey runs the shortcut bound to k and reports whether one matched.
// While text is being edited only Escape is handled.
func (e *Editor) HandleKey(k Key) (bool, error) {
	if k.Key == "Escape" {
		return true, e.Escape()
	}
	if e.tools.State() == tool.TextEditing {
		return false, nil
	}

	if k.Ctrl || k.Meta {
		switch strings.ToLower(k.Key) {
		case "z":
			if k.Shift {
				_, err := e.Redo()
				return true, err
			}
			_, err := e.Undo()
			return true, err
		case "y":
			_, err := e.Redo()
			return true, err
		case "g":
			if k.Shift {
				return true, e.Ungroup()
			}
			return true, e.Group()
		case "c":
			e.Copy()
			return true, nil
		case "v":
			return true, e.Paste()
		case "d":
			return true, e.Duplicate()
		}
		return false, nil
	}

	switch k.Key {
	case "Delete", "Backspace":
		return true, e.DeleteSelected()
	}
	if t, ok := toolKeys[strings.ToLower(k.Key)]; ok {
		return true, e.SelectTool(string(t))
	}
	return false, nil
}
