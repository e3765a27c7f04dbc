package render

import (
	"fmt"
	"image"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
)

// ImageSource resolves image assets for rasterization.
type ImageSource interface {
	Image(assetID string) (image.Image, bool)
}

// RasterOptions controls the output of Rasterize.
type RasterOptions struct {
	Width, Height int
	// Background is a hex color; empty means transparent.
	Background string
	// View maps scene coordinates onto the output.
	View   document.View
	Images ImageSource
}

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
	fontErr    error
)

func defaultFont() (*text.FontSource, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewFontSource(goregular.TTF)
	})
	return fontSource, fontErr
}

// Rasterizer paints scene objects onto a gg context.
type Rasterizer struct {
	dc   *gg.Context
	opts RasterOptions
	view geom.Matrix2D
}

// Rasterize paints objs, given in paint order, and writes the result as PNG.
func Rasterize(w io.Writer, objs []*document.SceneObject, opts RasterOptions) error {
	r, err := NewRasterizer(objs, opts)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.dc.EncodePNG(w)
}

// RasterizeJPEG is Rasterize with JPEG output.
func RasterizeJPEG(w io.Writer, objs []*document.SceneObject, opts RasterOptions, quality int) error {
	if opts.Background == "" {
		opts.Background = "#ffffff"
	}
	r, err := NewRasterizer(objs, opts)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.dc.EncodeJPEG(w, quality)
}

// NewRasterizer creates a context of the requested size and paints objs into it.
func NewRasterizer(objs []*document.SceneObject, opts RasterOptions) (*Rasterizer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("rasterize: invalid size %dx%d", opts.Width, opts.Height)
	}
	zoom := opts.View.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	r := &Rasterizer{
		dc:   gg.NewContext(opts.Width, opts.Height),
		opts: opts,
		view: geom.Translate(opts.View.Pan.X, opts.View.Pan.Y).Multiply(geom.Matrix2D{zoom, 0, 0, zoom, 0, 0}),
	}
	if opts.Background != "" {
		c, err := colorful.Hex(opts.Background)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("rasterize: background %q: %w", opts.Background, err)
		}
		r.dc.ClearWithColor(gg.RGB(c.R, c.G, c.B))
	}
	for _, obj := range objs {
		if err := r.paint(obj, r.view, 1.0); err != nil {
			r.Close()
			return nil, fmt.Errorf("rasterize %s: %w", obj.ID, err)
		}
	}
	return r, nil
}

// Image returns the painted image.
func (r *Rasterizer) Image() image.Image { return r.dc.Image() }

func (r *Rasterizer) Close() error { return r.dc.Close() }

func (r *Rasterizer) paint(obj *document.SceneObject, parent geom.Matrix2D, parentOpacity float64) error {
	world := parent.Multiply(obj.Matrix())
	opacity := parentOpacity * obj.Style.Opacity
	g := obj.Geometry

	r.dc.Push()
	defer r.dc.Pop()
	r.dc.SetTransform(toMatrix(world))

	switch obj.Kind {
	case document.KindGroup:
		for _, m := range obj.Members {
			if err := r.paint(m, world, opacity); err != nil {
				return err
			}
		}
		return nil
	case document.KindImage:
		return r.paintImage(obj, opacity)
	case document.KindText:
		return r.paintText(obj, world, opacity)
	case document.KindRectangle, document.KindFrame:
		if g.RX > 0 {
			r.dc.DrawRoundedRectangle(0, 0, g.Width, g.Height, math.Min(g.RX, math.Min(g.Width, g.Height)/2))
		} else {
			r.dc.DrawRectangle(0, 0, g.Width, g.Height)
		}
		return r.fillStroke(obj.Style, opacity, true)
	case document.KindEllipse:
		r.dc.DrawEllipse(g.Width/2, g.Height/2, g.Width/2, g.Height/2)
		return r.fillStroke(obj.Style, opacity, true)
	case document.KindLine, document.KindArrow, document.KindPath:
		r.tracePath(ObjectPath(obj))
		return r.fillStroke(obj.Style, opacity, false)
	default:
		return nil
	}
}

// tracePath replays path commands onto the context.
func (r *Rasterizer) tracePath(path []PathCommand) {
	for _, cmd := range path {
		if len(cmd) == 0 {
			continue
		}
		op, _ := cmd[0].(string)
		switch {
		case op == "M" && len(cmd) >= 3:
			r.dc.MoveTo(num(cmd[1]), num(cmd[2]))
		case op == "L" && len(cmd) >= 3:
			r.dc.LineTo(num(cmd[1]), num(cmd[2]))
		case op == "C" && len(cmd) >= 7:
			r.dc.CubicTo(num(cmd[1]), num(cmd[2]), num(cmd[3]), num(cmd[4]), num(cmd[5]), num(cmd[6]))
		case op == "Z":
			r.dc.ClosePath()
		}
	}
}

func (r *Rasterizer) fillStroke(s document.Style, opacity float64, fill bool) error {
	if fill && setColor(r.dc, s.Fill, opacity) {
		if err := r.dc.FillPreserve(); err != nil {
			return err
		}
	}
	if s.StrokeWidth > 0 && setColor(r.dc, s.Stroke, opacity) {
		r.dc.SetLineWidth(s.StrokeWidth)
		if err := r.dc.Stroke(); err != nil {
			return err
		}
	}
	r.dc.ClearPath()
	return nil
}

func (r *Rasterizer) paintImage(obj *document.SceneObject, opacity float64) error {
	if r.opts.Images == nil {
		return nil
	}
	img, ok := r.opts.Images.Image(obj.Image.AssetID)
	if !ok {
		return nil
	}
	r.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:  obj.Geometry.Width,
		DstHeight: obj.Geometry.Height,
		Opacity:   opacity,
	})
	return nil
}

// paintText draws each line at its baseline. Glyphs are laid out upright
// at the transformed origin; gg does not rotate text runs.
func (r *Rasterizer) paintText(obj *document.SceneObject, world geom.Matrix2D, opacity float64) error {
	src, err := defaultFont()
	if err != nil {
		return err
	}
	if !setColor(r.dc, obj.Style.Fill, opacity) {
		return nil
	}
	scale := math.Sqrt(math.Abs(world.Determinant()))
	size := obj.Text.FontSize * scale
	r.dc.Identity()
	r.dc.SetFont(src.Face(size))
	for i, line := range strings.Split(obj.Text.Content, "\n") {
		x, y := world.TransformPoint(0, obj.Text.FontSize*(float64(i)+1))
		r.dc.DrawString(line, x, y)
	}
	return nil
}

// setColor selects a solid color; it reports false for empty or
// transparent colors, which paint nothing.
func setColor(dc *gg.Context, hex string, opacity float64) bool {
	if hex == "" || hex == "transparent" {
		return false
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return false
	}
	dc.SetRGBA(c.R, c.G, c.B, opacity)
	return true
}

// toMatrix converts a Canvas-order matrix [a b c d e f] to gg's row form.
func toMatrix(m geom.Matrix2D) gg.Matrix {
	return gg.Matrix{
		A: m[0], B: m[2], C: m[4],
		D: m[1], E: m[3], F: m[5],
	}
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
