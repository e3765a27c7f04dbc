package document

import (
	"errors"
	"math"
	"testing"

	"github.com/inamate/whiteboard/internal/geom"
)

func TestEncodeDecodeSample(t *testing.T) {
	p := NewSampleProject()
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(got.Objects) != len(p.Objects) {
		t.Fatalf("objects = %d, want %d", len(got.Objects), len(p.Objects))
	}
	if got.Objects[3].Kind != KindArrow || len(got.Objects[3].Geometry.Points) != 2 {
		t.Errorf("arrow did not survive: %+v", got.Objects[3])
	}
	if got.Objects[4].Text == nil || got.Objects[4].Text.Content != "Hello, board" {
		t.Errorf("text content lost")
	}
}

func TestDecodeRejects(t *testing.T) {
	valid := func() *Project {
		p := NewEmptyProject("layer_a")
		p.Objects = []*SceneObject{{
			ID:       "obj_a",
			Kind:     KindRectangle,
			Geometry: Geometry{X: 1, Y: 2, Width: 10, Height: 10},
			Style:    DefaultStyle(),
			LayerID:  "layer_a",
		}}
		p.Layers[0].ObjectIDs = []string{"obj_a"}
		return p
	}

	tests := []struct {
		name   string
		mutate func(p *Project)
		want   error
	}{
		{"unknown kind", func(p *Project) { p.Objects[0].Kind = "Rect" }, ErrInvalidProject},
		{"unknown layer", func(p *Project) { p.Objects[0].LayerID = "layer_b" }, ErrInvalidProject},
		{"unlisted object", func(p *Project) { p.Layers[0].ObjectIDs = nil }, ErrInvalidProject},
		{"dangling id", func(p *Project) { p.Layers[0].ObjectIDs = append(p.Layers[0].ObjectIDs, "obj_x") }, ErrInvalidProject},
		{"zorder mismatch", func(p *Project) { p.Objects[0].ZOrder = 3 }, ErrInvalidProject},
		{"bad color", func(p *Project) { p.Objects[0].Style.Fill = "not-a-color" }, ErrInvalidProject},
		{"opacity out of range", func(p *Project) { p.Objects[0].Style.Opacity = 2 }, ErrInvalidProject},
		{"negative size", func(p *Project) { p.Objects[0].Geometry.Width = -1 }, ErrInvalidProject},
		{"zero zoom", func(p *Project) { p.View.Zoom = 0 }, ErrInvalidProject},
		{"line without points", func(p *Project) { p.Objects[0].Kind = KindLine }, ErrInvalidProject},
		{"group of one", func(p *Project) {
			p.Objects[0].Kind = KindGroup
			p.Objects[0].Members = []*SceneObject{{ID: "obj_m", Kind: KindRectangle, Style: DefaultStyle()}}
		}, ErrInvalidProject},
		{"future version", func(p *Project) { p.Version = FormatVersion + 1 }, ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			data, err := Encode(p)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			_, err = Decode(data)
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("Decode() error = %v, want *LoadError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	inputs := []string{
		``,
		`{"version":1,`,
		`{"objects":[]}`,
		`{"version":"1"}`,
		`{"version":1,"objects":[],"layers":[],"view":{"pan":{"x":0,"y":0},"zoom":1},"extra":true}`,
	}
	for _, in := range inputs {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", in)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	o := &SceneObject{
		ID:   "obj_g",
		Kind: KindGroup,
		Members: []*SceneObject{
			{ID: "obj_1", Kind: KindLine, Geometry: Geometry{Points: []geom.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}}},
			{ID: "obj_2", Kind: KindText, Text: &TextData{Content: "a"}},
		},
	}
	c := o.Clone()
	c.Members[0].Geometry.Points[1].X = 99
	c.Members[1].Text.Content = "b"

	if o.Members[0].Geometry.Points[1].X != 5 {
		t.Error("points shared with clone")
	}
	if o.Members[1].Text.Content != "a" {
		t.Error("text shared with clone")
	}
}

func TestBoundsRotated(t *testing.T) {
	o := &SceneObject{Geometry: Geometry{X: 0, Y: 0, Width: 10, Height: 10, Rotation: 90}}
	b := o.Bounds()
	if !approx(b.X, 0) || !approx(b.Width, 10) || !approx(b.Height, 10) {
		t.Errorf("Bounds() = %+v, want square unchanged by 90deg turn", b)
	}

	o.Geometry.Rotation = 45
	b = o.Bounds()
	if math.Abs(b.Width-10*math.Sqrt2) > 1e-9 {
		t.Errorf("Bounds().Width = %v, want %v", b.Width, 10*math.Sqrt2)
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
