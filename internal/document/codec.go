package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tidwall/gjson"
)

var (
	ErrMalformed          = errors.New("malformed project JSON")
	ErrUnsupportedVersion = errors.New("unsupported project version")
	ErrInvalidProject     = errors.New("invalid project")
)

// LoadError reports why a project could not be loaded. A failed load never
// touches the live scene.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "load project: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Encode serializes a project. Version defaults to FormatVersion.
func Encode(p *Project) ([]byte, error) {
	if p.Version == 0 {
		p.Version = FormatVersion
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return data, nil
}

// Decode parses and validates a project. Any failure is returned as *LoadError.
func Decode(data []byte) (*Project, error) {
	p, err := decode(data)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return p, nil
}

func decode(data []byte) (*Project, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}

	// Probe the version before committing to the typed schema.
	version := gjson.GetBytes(data, "version")
	if !version.Exists() || version.Type != gjson.Number {
		return nil, fmt.Errorf("missing version: %w", ErrInvalidProject)
	}
	if v := version.Int(); v < 1 || v > FormatVersion {
		return nil, fmt.Errorf("version %d: %w", v, ErrUnsupportedVersion)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p Project
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the structural invariants of a project: unique ids, known
// kinds, sane geometry and style, and that every top-level object belongs to
// exactly one layer at the position recorded in its zOrder.
func Validate(p *Project) error {
	if !finite(p.View.Pan.X, p.View.Pan.Y, p.View.Zoom) || p.View.Zoom <= 0 {
		return fmt.Errorf("view zoom %v: %w", p.View.Zoom, ErrInvalidProject)
	}

	layers := make(map[string]*Layer, len(p.Layers))
	for _, l := range p.Layers {
		if l == nil || l.ID == "" {
			return fmt.Errorf("layer without id: %w", ErrInvalidProject)
		}
		if _, dup := layers[l.ID]; dup {
			return fmt.Errorf("duplicate layer %q: %w", l.ID, ErrInvalidProject)
		}
		layers[l.ID] = l
	}

	seen := make(map[string]bool)
	topLevel := make(map[string]*SceneObject, len(p.Objects))
	for _, o := range p.Objects {
		if o == nil {
			return fmt.Errorf("null object: %w", ErrInvalidProject)
		}
		if err := validateObject(o, seen); err != nil {
			return err
		}
		if _, ok := layers[o.LayerID]; !ok {
			return fmt.Errorf("object %q: unknown layer %q: %w", o.ID, o.LayerID, ErrInvalidProject)
		}
		topLevel[o.ID] = o
	}

	listed := make(map[string]bool, len(topLevel))
	for _, l := range p.Layers {
		for i, id := range l.ObjectIDs {
			o, ok := topLevel[id]
			if !ok {
				return fmt.Errorf("layer %q lists unknown object %q: %w", l.ID, id, ErrInvalidProject)
			}
			if listed[id] {
				return fmt.Errorf("object %q listed twice: %w", id, ErrInvalidProject)
			}
			if o.LayerID != l.ID {
				return fmt.Errorf("object %q listed in layer %q but belongs to %q: %w", id, l.ID, o.LayerID, ErrInvalidProject)
			}
			if o.ZOrder != i {
				return fmt.Errorf("object %q zOrder %d != position %d: %w", id, o.ZOrder, i, ErrInvalidProject)
			}
			listed[id] = true
		}
	}
	if len(listed) != len(topLevel) {
		for id := range topLevel {
			if !listed[id] {
				return fmt.Errorf("object %q not listed in any layer: %w", id, ErrInvalidProject)
			}
		}
	}
	return nil
}

func validateObject(o *SceneObject, seen map[string]bool) error {
	if o.ID == "" {
		return fmt.Errorf("object without id: %w", ErrInvalidProject)
	}
	if seen[o.ID] {
		return fmt.Errorf("duplicate object %q: %w", o.ID, ErrInvalidProject)
	}
	seen[o.ID] = true

	if !o.Kind.Valid() {
		return fmt.Errorf("object %q: unknown kind %q: %w", o.ID, o.Kind, ErrInvalidProject)
	}

	g := o.Geometry
	if !finite(g.X, g.Y, g.Width, g.Height, g.Rotation, g.RX, g.RY, g.HeadAngle) || g.Width < 0 || g.Height < 0 {
		return fmt.Errorf("object %q: bad geometry: %w", o.ID, ErrInvalidProject)
	}
	for _, pt := range g.Points {
		if !finite(pt.X, pt.Y) {
			return fmt.Errorf("object %q: bad point: %w", o.ID, ErrInvalidProject)
		}
	}

	s := o.Style
	if !finite(s.StrokeWidth, s.Opacity) || s.StrokeWidth < 0 || s.Opacity < 0 || s.Opacity > 1 {
		return fmt.Errorf("object %q: bad style: %w", o.ID, ErrInvalidProject)
	}
	if !ValidColor(s.Fill) || !ValidColor(s.Stroke) {
		return fmt.Errorf("object %q: bad color: %w", o.ID, ErrInvalidProject)
	}

	switch o.Kind {
	case KindLine, KindArrow:
		if len(g.Points) != 2 {
			return fmt.Errorf("object %q: %s needs 2 points: %w", o.ID, o.Kind, ErrInvalidProject)
		}
	case KindPath:
		if len(g.Points) < 2 {
			return fmt.Errorf("object %q: path needs at least 2 points: %w", o.ID, ErrInvalidProject)
		}
	case KindText:
		if o.Text == nil {
			return fmt.Errorf("object %q: text without content: %w", o.ID, ErrInvalidProject)
		}
	case KindImage:
		if o.Image == nil || o.Image.AssetID == "" {
			return fmt.Errorf("object %q: image without asset: %w", o.ID, ErrInvalidProject)
		}
	case KindGroup:
		if len(o.Members) < 2 {
			return fmt.Errorf("object %q: group needs at least 2 members: %w", o.ID, ErrInvalidProject)
		}
	case KindRectangle, KindEllipse, KindFrame:
	}

	if o.Kind != KindGroup && len(o.Members) > 0 {
		return fmt.Errorf("object %q: only groups own members: %w", o.ID, ErrInvalidProject)
	}
	for _, m := range o.Members {
		if m == nil {
			return fmt.Errorf("group %q: null member: %w", o.ID, ErrInvalidProject)
		}
		if err := validateObject(m, seen); err != nil {
			return err
		}
	}
	return nil
}

// ValidColor accepts "", "transparent" and hex colors.
func ValidColor(c string) bool {
	if c == "" || c == "transparent" {
		return true
	}
	_, err := colorful.Hex(c)
	return err == nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
