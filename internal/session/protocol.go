package session

import (
	"encoding/json"

	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/render"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Server -> client
	TypeRender = "render"
	TypeNotify = "notify"

	// Pointer and keyboard
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeKey         = "key"

	// Tools and text
	TypeToolSelect = "tool.select"
	TypeTextSet    = "text.set"
	TypeTextEnd    = "text.end"

	// Editing
	TypeSelectionSet = "selection.set"
	TypeStyleSet     = "style.set"
	TypeGeometrySet  = "geometry.set"
	TypeReorder      = "reorder"
	TypeGroup        = "group"
	TypeUngroup      = "ungroup"
	TypeDelete       = "delete"
	TypeClear        = "clear"
	TypeUndo         = "undo"
	TypeRedo         = "redo"
	TypeCopy         = "copy"
	TypePaste        = "paste"
	TypeDuplicate    = "duplicate"
	TypeImageInsert  = "image.insert"

	// Layers, view and persistence
	TypeLayerAdd    = "layer.add"
	TypeLayerUpdate = "layer.update"
	TypeViewSet     = "view.set"
	TypeSave        = "save"
)

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
	Board     string `json:"board"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type NotifyPayload struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// RenderPayload is everything a client needs to repaint.
type RenderPayload struct {
	Commands  []render.DrawCommand `json:"commands"`
	Selection []string             `json:"selection"`
	Bounds    geom.Rect            `json:"bounds"`
	Tool      string               `json:"tool"`
	State     string               `json:"state"`
	CanUndo   bool                 `json:"canUndo"`
	CanRedo   bool                 `json:"canRedo"`
	Layers    []LayerInfo          `json:"layers"`
	Current   string               `json:"currentLayer"`
}

type LayerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
	Objects int    `json:"objects"`
}

type PointerPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Additive bool    `json:"additive,omitempty"`
}

type ToolPayload struct {
	Tool string `json:"tool"`
}

type TextPayload struct {
	Content string `json:"content"`
}

type SelectionPayload struct {
	IDs []string `json:"ids"`
}

// StylePayload carries the properties to change; absent fields are left alone.
type StylePayload struct {
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
}

type GeometryPayload struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

type ReorderPayload struct {
	Direction string `json:"direction"` // "front" or "back"
}

// ImagePayload is a dropped or picked image file. Data is base64 in JSON.
type ImagePayload struct {
	Name string  `json:"name"`
	Data []byte  `json:"data"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type LayerAddPayload struct {
	Name string `json:"name"`
}

type LayerUpdatePayload struct {
	ID      string `json:"id"`
	Visible *bool  `json:"visible,omitempty"`
	Locked  *bool  `json:"locked,omitempty"`
	Current bool   `json:"current,omitempty"`
}

type ViewPayload struct {
	Pan  geom.Point `json:"pan"`
	Zoom float64    `json:"zoom"`
}
