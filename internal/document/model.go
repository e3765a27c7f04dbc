package document

import (
	"github.com/inamate/whiteboard/internal/geom"
)

// FormatVersion is the project file version written by Encode.
const FormatVersion = 1

type ObjectKind string

const (
	KindRectangle ObjectKind = "rectangle"
	KindEllipse   ObjectKind = "ellipse"
	KindLine      ObjectKind = "line"
	KindArrow     ObjectKind = "arrow"
	KindText      ObjectKind = "text"
	KindImage     ObjectKind = "image"
	KindGroup     ObjectKind = "group"
	KindFrame     ObjectKind = "frame"
	KindPath      ObjectKind = "path"
)

// Valid reports whether k is one of the known object kinds.
func (k ObjectKind) Valid() bool {
	switch k {
	case KindRectangle, KindEllipse, KindLine, KindArrow, KindText,
		KindImage, KindGroup, KindFrame, KindPath:
		return true
	default:
		return false
	}
}

// Linear reports whether the kind is described by a point list rather than a box.
func (k ObjectKind) Linear() bool {
	switch k {
	case KindLine, KindArrow, KindPath:
		return true
	case KindRectangle, KindEllipse, KindText, KindImage, KindGroup, KindFrame:
		return false
	default:
		return false
	}
}

// Geometry places an object. The local box spans (0,0)-(Width,Height) and is
// rotated by Rotation degrees about its center. Points are relative to (X, Y).
type Geometry struct {
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Rotation  float64      `json:"rotation"`
	RX        float64      `json:"rx,omitempty"`
	RY        float64      `json:"ry,omitempty"`
	Points    []geom.Point `json:"points,omitempty"`
	HeadAngle float64      `json:"headAngle,omitempty"`
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

type TextData struct {
	Content    string  `json:"content"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
}

type ImageData struct {
	AssetID       string  `json:"assetId"`
	URL           string  `json:"url,omitempty"`
	NaturalWidth  float64 `json:"naturalWidth"`
	NaturalHeight float64 `json:"naturalHeight"`
}

// SceneObject is a single drawable entity. A group exclusively owns its
// Members; their geometry is relative to the group's (X, Y).
type SceneObject struct {
	ID       string         `json:"id"`
	Kind     ObjectKind     `json:"kind"`
	Geometry Geometry       `json:"geometry"`
	Style    Style          `json:"style"`
	LayerID  string         `json:"layerId"`
	ZOrder   int            `json:"zOrder"`
	Text     *TextData      `json:"text,omitempty"`
	Image    *ImageData     `json:"image,omitempty"`
	Members  []*SceneObject `json:"members,omitempty"`

	// Transient objects are provisional shapes still being drawn. They are
	// never hit-tested, snapped against, or captured.
	Transient bool `json:"-"`
}

// Clone returns a deep copy, including members.
func (o *SceneObject) Clone() *SceneObject {
	c := *o
	if o.Geometry.Points != nil {
		c.Geometry.Points = append([]geom.Point(nil), o.Geometry.Points...)
	}
	if o.Text != nil {
		t := *o.Text
		c.Text = &t
	}
	if o.Image != nil {
		img := *o.Image
		c.Image = &img
	}
	if o.Members != nil {
		c.Members = make([]*SceneObject, len(o.Members))
		for i, m := range o.Members {
			c.Members[i] = m.Clone()
		}
	}
	return &c
}

// Matrix returns the object's local-to-parent transform.
func (o *SceneObject) Matrix() geom.Matrix2D {
	g := o.Geometry
	return geom.FromPlacement(g.X, g.Y, g.Width, g.Height, g.Rotation)
}

// Bounds returns the axis-aligned bounding box in parent space.
func (o *SceneObject) Bounds() geom.Rect {
	g := o.Geometry
	if g.Rotation == 0 {
		return geom.Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
	}
	return o.Matrix().TransformRect(geom.Rect{Width: g.Width, Height: g.Height})
}

// MemberIDs returns the ids of a group's members in order.
func (o *SceneObject) MemberIDs() []string {
	ids := make([]string, len(o.Members))
	for i, m := range o.Members {
		ids[i] = m.ID
	}
	return ids
}

// Translate moves the object by (dx, dy).
func (o *SceneObject) Translate(dx, dy float64) {
	o.Geometry.X += dx
	o.Geometry.Y += dy
}

type Layer struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Visible   bool     `json:"visible"`
	Locked    bool     `json:"locked"`
	ObjectIDs []string `json:"objectIds"`
}

// Clone returns a copy with its own id slice.
func (l *Layer) Clone() *Layer {
	c := *l
	c.ObjectIDs = append([]string{}, l.ObjectIDs...)
	return &c
}

type View struct {
	Pan  geom.Point `json:"pan"`
	Zoom float64    `json:"zoom"`
}

// Project is the persisted project format. Selection is never part of it.
type Project struct {
	Version   int            `json:"version"`
	Timestamp string         `json:"timestamp"`
	Objects   []*SceneObject `json:"objects"`
	Layers    []*Layer       `json:"layers"`
	View      View           `json:"view"`
}

// DefaultView returns an unpanned view at 100% zoom.
func DefaultView() View {
	return View{Zoom: 1}
}

// DefaultStyle mirrors the toolbar defaults of a fresh board.
func DefaultStyle() Style {
	return Style{
		Fill:        "#ffffff",
		Stroke:      "#333333",
		StrokeWidth: 2,
		Opacity:     1,
	}
}
