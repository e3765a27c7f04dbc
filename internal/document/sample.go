package document

import (
	"time"

	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/typeid"
)

// NewEmptyProject creates a blank board with a single layer.
func NewEmptyProject(layerID string) *Project {
	return &Project{
		Version:   FormatVersion,
		Timestamp: "", // Will be set by caller
		Objects:   []*SceneObject{},
		Layers: []*Layer{
			{
				ID:        layerID,
				Name:      "Layer 1",
				Visible:   true,
				Locked:    false,
				ObjectIDs: []string{},
			},
		},
		View: DefaultView(),
	}
}

// NewSampleProject builds a small demo board: a frame holding a rectangle,
// an ellipse, an arrow between them and a caption.
func NewSampleProject() *Project {
	now := time.Now().UTC().Format(time.RFC3339)

	layerID := typeid.NewLayerID()
	frameID := typeid.NewObjectID()
	rectID := typeid.NewObjectID()
	ellipseID := typeid.NewObjectID()
	arrowID := typeid.NewObjectID()
	textID := typeid.NewObjectID()

	objects := []*SceneObject{
		{
			ID:   frameID,
			Kind: KindFrame,
			Geometry: Geometry{
				X: 80, Y: 60, Width: 640, Height: 400,
			},
			Style: Style{Fill: "#f8f9fa", Stroke: "#adb5bd", StrokeWidth: 1, Opacity: 1},
		},
		{
			ID:   rectID,
			Kind: KindRectangle,
			Geometry: Geometry{
				X: 140, Y: 160, Width: 160, Height: 100, RX: 10, RY: 10,
			},
			Style: Style{Fill: "#e94560", Stroke: "#333333", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID:   ellipseID,
			Kind: KindEllipse,
			Geometry: Geometry{
				X: 480, Y: 160, Width: 140, Height: 100, RX: 70, RY: 50,
			},
			Style: Style{Fill: "#0f3460", Stroke: "#333333", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID:   arrowID,
			Kind: KindArrow,
			Geometry: Geometry{
				X: 300, Y: 210, Width: 180, Height: 0,
				Points: []geom.Point{{X: 0, Y: 0}, {X: 180, Y: 0}},
			},
			Style: Style{Fill: "", Stroke: "#333333", StrokeWidth: 2, Opacity: 1},
		},
		{
			ID:   textID,
			Kind: KindText,
			Geometry: Geometry{
				X: 140, Y: 320, Width: 200, Height: 30,
			},
			Style: Style{Fill: "#333333", Stroke: "", StrokeWidth: 0, Opacity: 1},
			Text:  &TextData{Content: "Hello, board", FontSize: 24, FontFamily: "Inter"},
		},
	}

	ids := make([]string, len(objects))
	for i, o := range objects {
		o.LayerID = layerID
		o.ZOrder = i
		ids[i] = o.ID
	}

	return &Project{
		Version:   FormatVersion,
		Timestamp: now,
		Objects:   objects,
		Layers: []*Layer{
			{ID: layerID, Name: "Layer 1", Visible: true, ObjectIDs: ids},
		},
		View: DefaultView(),
	}
}
