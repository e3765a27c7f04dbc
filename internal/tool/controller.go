// Package tool turns pointer gestures into new scene objects.
package tool

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/scene"
	"github.com/inamate/whiteboard/internal/typeid"
)

var ErrUnknownTool = errors.New("unknown tool")

type Tool string

const (
	Select      Tool = "select"
	Rect        Tool = "rect"
	RoundedRect Tool = "rounded-rect"
	Oval        Tool = "oval"
	Line        Tool = "line"
	Arrow       Tool = "arrow"
	Frame       Tool = "frame"
	Text        Tool = "text"
	Pencil      Tool = "pencil"
)

// Valid reports whether t names a tool.
func (t Tool) Valid() bool {
	switch t {
	case Select, Rect, RoundedRect, Oval, Line, Arrow, Frame, Text, Pencil:
		return true
	default:
		return false
	}
}

// Kind returns the object kind the tool draws.
func (t Tool) Kind() document.ObjectKind {
	switch t {
	case Rect, RoundedRect:
		return document.KindRectangle
	case Oval:
		return document.KindEllipse
	case Line:
		return document.KindLine
	case Arrow:
		return document.KindArrow
	case Frame:
		return document.KindFrame
	case Text:
		return document.KindText
	case Pencil:
		return document.KindPath
	case Select:
		return ""
	default:
		return ""
	}
}

type State int

const (
	Idle State = iota
	Drawing
	TextEditing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case TextEditing:
		return "text-editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	DefaultText     = "Type here..."
	DefaultFontSize = 24
	DefaultFont     = "Arial"
	cornerRadius    = 10
)

type Options struct {
	// MinSize is the smallest extent a drawn shape may have.
	MinSize float64
	// SimplifyTolerance is the Ramer-Douglas-Peucker tolerance applied to
	// freehand strokes when AutoRefine is set.
	SimplifyTolerance float64
	AutoRefine        bool
	// Style is applied to newly drawn objects.
	Style document.Style
}

func DefaultOptions() Options {
	return Options{
		MinSize:           5,
		SimplifyTolerance: 2.0,
		AutoRefine:        true,
		Style:             document.DefaultStyle(),
	}
}

// HitTester finds the topmost interactive object under a point.
type HitTester interface {
	HitTest(x, y float64) (string, bool)
}

// Committer records the scene in history.
type Committer interface {
	Commit() error
}

// Controller is the drawing state machine. It is driven from the editor's
// event goroutine only.
type Controller struct {
	graph *scene.Graph
	sel   *scene.Selection
	hit   HitTester
	hist  Committer
	opts  Options

	tool  Tool
	state State

	active *document.SceneObject
	anchor geom.Point
	stroke []geom.Point

	textBefore string
}

func New(g *scene.Graph, sel *scene.Selection, hit HitTester, hist Committer, opts Options) *Controller {
	return &Controller{
		graph: g,
		sel:   sel,
		hit:   hit,
		hist:  hist,
		opts:  opts,
		tool:  Select,
		state: Idle,
	}
}

func (c *Controller) Tool() Tool       { return c.tool }
func (c *Controller) State() State     { return c.state }
func (c *Controller) Options() Options { return c.opts }

// SetStyle changes the style given to objects drawn from now on.
func (c *Controller) SetStyle(s document.Style) { c.opts.Style = s }

// Active returns the object being drawn or edited, if any.
func (c *Controller) Active() (*document.SceneObject, bool) {
	return c.active, c.active != nil
}

// SelectTool switches tools. Any shape being drawn is discarded and text
// editing is finished. Leaving the select tool clears the selection.
func (c *Controller) SelectTool(t Tool) error {
	if !t.Valid() {
		return fmt.Errorf("select tool %q: %w", t, ErrUnknownTool)
	}
	var err error
	switch c.state {
	case Drawing:
		c.discard()
	case TextEditing:
		err = c.EndTextEditing()
	case Idle:
	}
	c.tool = t
	c.state = Idle
	if t != Select {
		c.sel.Clear()
	}
	return err
}

// PointerDown starts a shape at (x, y). It reports whether the event was
// consumed; the select tool and presses over existing objects are left to
// the move gesture.
func (c *Controller) PointerDown(x, y float64) (bool, error) {
	if c.state == TextEditing {
		if err := c.EndTextEditing(); err != nil {
			return false, err
		}
	}
	if c.state != Idle || c.tool == Select {
		return false, nil
	}
	if _, ok := c.hit.HitTest(x, y); ok {
		return false, nil
	}
	layer := c.graph.CurrentLayer()
	if layer == nil || !layer.Visible || layer.Locked {
		return false, nil
	}

	if c.tool == Text {
		return true, c.beginText(x, y, layer.ID)
	}

	obj := &document.SceneObject{
		ID:        typeid.NewObjectID(),
		Kind:      c.tool.Kind(),
		Geometry:  document.Geometry{X: x, Y: y},
		Style:     c.opts.Style,
		Transient: true,
	}
	switch c.tool {
	case RoundedRect:
		obj.Geometry.RX, obj.Geometry.RY = cornerRadius, cornerRadius
	case Line, Arrow:
		obj.Geometry.Points = []geom.Point{{}, {}}
	case Pencil:
		obj.Style.Fill = "transparent"
		obj.Geometry.Points = []geom.Point{{}}
	case Select, Rect, Oval, Frame, Text:
	}
	if err := c.graph.AddObject(obj, layer.ID); err != nil {
		return false, err
	}

	c.active = obj
	c.anchor = geom.Point{X: x, Y: y}
	c.stroke = []geom.Point{c.anchor}
	c.state = Drawing
	return true, nil
}

// PointerMove resizes the shape being drawn.
func (c *Controller) PointerMove(x, y float64) bool {
	if c.state != Drawing {
		return false
	}
	c.reshape(geom.Point{X: x, Y: y})
	return true
}

func (c *Controller) reshape(p geom.Point) {
	g := &c.active.Geometry
	switch c.active.Kind {
	case document.KindRectangle, document.KindFrame:
		r := geom.RectFromPoints(c.anchor, p)
		g.X, g.Y, g.Width, g.Height = r.X, r.Y, r.Width, r.Height
	case document.KindEllipse:
		r := geom.RectFromPoints(c.anchor, p)
		g.X, g.Y, g.Width, g.Height = r.X, r.Y, r.Width, r.Height
		g.RX, g.RY = r.Width/2, r.Height/2
	case document.KindLine, document.KindArrow:
		r := geom.RectFromPoints(c.anchor, p)
		g.X, g.Y, g.Width, g.Height = r.X, r.Y, r.Width, r.Height
		g.Points = []geom.Point{
			{X: c.anchor.X - r.X, Y: c.anchor.Y - r.Y},
			{X: p.X - r.X, Y: p.Y - r.Y},
		}
		if c.active.Kind == document.KindArrow {
			g.HeadAngle = math.Atan2(p.Y-c.anchor.Y, p.X-c.anchor.X) * 180 / math.Pi
		}
	case document.KindPath:
		c.stroke = append(c.stroke, p)
		setStroke(g, c.stroke)
	case document.KindText, document.KindImage, document.KindGroup:
	}
}

// setStroke stores absolute points as a box plus relative points.
func setStroke(g *document.Geometry, pts []geom.Point) {
	r := geom.BoundsOf(pts)
	g.X, g.Y, g.Width, g.Height = r.X, r.Y, r.Width, r.Height
	g.Points = make([]geom.Point, len(pts))
	for i, p := range pts {
		g.Points[i] = geom.Point{X: p.X - r.X, Y: p.Y - r.Y}
	}
}

// PointerUp finishes the shape. Shapes smaller than the minimum size are
// dropped without a history entry; anything else is committed, selected,
// and the select tool is restored.
func (c *Controller) PointerUp(x, y float64) (bool, error) {
	if c.state != Drawing {
		return false, nil
	}
	p := geom.Point{X: x, Y: y}
	if p != c.stroke[len(c.stroke)-1] || c.active.Kind != document.KindPath {
		c.reshape(p)
	}

	obj := c.active
	if c.tooSmall(obj) {
		slog.Debug("discard small shape", "kind", obj.Kind, "width", obj.Geometry.Width, "height", obj.Geometry.Height)
		c.discard()
		return true, nil
	}

	if obj.Kind == document.KindPath && c.opts.AutoRefine {
		setStroke(&obj.Geometry, Simplify(c.stroke, c.opts.SimplifyTolerance))
	}

	obj.Transient = false
	c.active, c.stroke = nil, nil
	c.state = Idle
	c.tool = Select
	c.sel.Set(obj.ID)
	if err := c.hist.Commit(); err != nil {
		return true, fmt.Errorf("finish %s: %w", obj.Kind, err)
	}
	return true, nil
}

// tooSmall applies the minimum size. Boxes need both extents; lines and
// strokes need only one, so horizontal and vertical lines survive.
func (c *Controller) tooSmall(obj *document.SceneObject) bool {
	w, h, m := obj.Geometry.Width, obj.Geometry.Height, c.opts.MinSize
	if obj.Kind.Linear() {
		return w < m && h < m
	}
	return w < m || h < m
}

// Escape abandons the shape being drawn or leaves text editing.
func (c *Controller) Escape() error {
	switch c.state {
	case Drawing:
		c.discard()
	case TextEditing:
		return c.EndTextEditing()
	case Idle:
	}
	return nil
}

// Abort drops any gesture in progress without touching history. The editor
// calls it before the scene is replaced wholesale. Text editing falls back
// to the select tool, as finishing it would.
func (c *Controller) Abort() {
	switch c.state {
	case Drawing:
		c.discard()
	case TextEditing:
		c.tool = Select
	case Idle:
	}
	c.active, c.stroke = nil, nil
	c.state = Idle
}

func (c *Controller) discard() {
	if c.active != nil {
		_ = c.graph.RemoveObject(c.active.ID)
	}
	c.active, c.stroke = nil, nil
	c.state = Idle
}

// --- Text ---

func (c *Controller) beginText(x, y float64, layerID string) error {
	obj := &document.SceneObject{
		ID:       typeid.NewObjectID(),
		Kind:     document.KindText,
		Geometry: document.Geometry{X: x, Y: y},
		Style: document.Style{
			Fill:    c.opts.Style.Stroke,
			Stroke:  "",
			Opacity: c.opts.Style.Opacity,
		},
		Text: &document.TextData{
			Content:    DefaultText,
			FontSize:   DefaultFontSize,
			FontFamily: DefaultFont,
		},
	}
	FitText(obj)
	if err := c.graph.AddObject(obj, layerID); err != nil {
		return err
	}
	c.sel.Set(obj.ID)
	if err := c.hist.Commit(); err != nil {
		return fmt.Errorf("create text: %w", err)
	}
	c.active = obj
	c.textBefore = obj.Text.Content
	c.state = TextEditing
	return nil
}

// SetText replaces the content of the text being edited.
func (c *Controller) SetText(content string) bool {
	if c.state != TextEditing {
		return false
	}
	c.active.Text.Content = content
	FitText(c.active)
	return true
}

// EndTextEditing leaves text editing, committing if the content changed.
func (c *Controller) EndTextEditing() error {
	if c.state != TextEditing {
		return nil
	}
	obj := c.active
	c.active = nil
	c.state = Idle
	c.tool = Select
	if obj.Text.Content == c.textBefore {
		return nil
	}
	if err := c.hist.Commit(); err != nil {
		return fmt.Errorf("edit text: %w", err)
	}
	return nil
}

// FitText sizes a text object's box from its content and font size.
func FitText(obj *document.SceneObject) {
	lines := strings.Split(obj.Text.Content, "\n")
	longest := 0
	for _, l := range lines {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	obj.Geometry.Width = float64(max(longest, 1)) * obj.Text.FontSize * 0.6
	obj.Geometry.Height = float64(len(lines)) * obj.Text.FontSize * 1.2
}
