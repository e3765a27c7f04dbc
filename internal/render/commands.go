// Package render turns the scene into draw commands for the canvas front-end,
// answers hit tests and rasterizes the board to an image.
package render

import (
	"encoding/json"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/snap"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op           string        `json:"op"`                     // "path", "image", "text", "guide"
	ObjectID     string        `json:"objectId,omitempty"`     // For hit correlation
	Transform    []float64     `json:"transform,omitempty"`    // [a, b, c, d, e, f] affine matrix
	Path         []PathCommand `json:"path,omitempty"`         // Path data for "path" ops
	Fill         string        `json:"fill,omitempty"`         // Fill color
	Stroke       string        `json:"stroke,omitempty"`       // Stroke color
	StrokeWidth  float64       `json:"strokeWidth,omitempty"`  // Stroke width
	Opacity      float64       `json:"opacity"`                // Global alpha; 0 is fully transparent
	ImageAssetID string        `json:"imageAssetId,omitempty"` // Asset ID for image lookup
	ImageURL     string        `json:"imageUrl,omitempty"`
	Width        float64       `json:"width,omitempty"` // Destination size for images and text boxes
	Height       float64       `json:"height,omitempty"`
	Text         string        `json:"text,omitempty"`
	FontSize     float64       `json:"fontSize,omitempty"`
	FontFamily   string        `json:"fontFamily,omitempty"`
	Axis         snap.Axis     `json:"axis,omitempty"` // Guide orientation
	Coord        float64       `json:"coord,omitempty"`
	Provisional  bool          `json:"provisional,omitempty"` // Shape still being drawn
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], etc.
type PathCommand []any

// CompileDrawCommands generates a draw command buffer for objects given in
// paint order, followed by one command per guide line.
func CompileDrawCommands(objs []*document.SceneObject, guides []snap.GuideLine) []DrawCommand {
	commands := make([]DrawCommand, 0, len(objs)+len(guides))
	for _, obj := range objs {
		compileObject(obj, geom.Identity(), 1.0, &commands)
	}
	for _, g := range guides {
		commands = append(commands, DrawCommand{Op: "guide", Opacity: 1, Axis: g.Axis, Coord: g.Coord})
	}
	return commands
}

// compileObject emits commands for an object and, for groups, its members.
func compileObject(obj *document.SceneObject, parent geom.Matrix2D, parentOpacity float64, commands *[]DrawCommand) {
	world := parent.Multiply(obj.Matrix())
	opacity := parentOpacity * obj.Style.Opacity
	g := obj.Geometry

	base := DrawCommand{
		ObjectID:    obj.ID,
		Transform:   world.ToSlice(),
		Opacity:     opacity,
		Provisional: obj.Transient,
	}

	switch obj.Kind {
	case document.KindGroup:
		for _, m := range obj.Members {
			compileObject(m, world, opacity, commands)
		}
	case document.KindImage:
		base.Op = "image"
		base.ImageAssetID = obj.Image.AssetID
		base.ImageURL = obj.Image.URL
		base.Width, base.Height = g.Width, g.Height
		*commands = append(*commands, base)
	case document.KindText:
		base.Op = "text"
		base.Fill = obj.Style.Fill
		base.Text = obj.Text.Content
		base.FontSize = obj.Text.FontSize
		base.FontFamily = obj.Text.FontFamily
		base.Width, base.Height = g.Width, g.Height
		*commands = append(*commands, base)
	case document.KindRectangle, document.KindEllipse, document.KindFrame,
		document.KindLine, document.KindArrow, document.KindPath:
		base.Op = "path"
		base.Path = ObjectPath(obj)
		if !obj.Kind.Linear() {
			base.Fill = obj.Style.Fill
		}
		base.Stroke = obj.Style.Stroke
		base.StrokeWidth = obj.Style.StrokeWidth
		*commands = append(*commands, base)
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
