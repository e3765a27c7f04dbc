package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/inamate/whiteboard/internal/asset"
	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/typeid"
)

// ImageFuture is an image being decoded off the mutation path. Done is
// closed once decoding finishes; the owner then hands the future to
// ApplyImage on the editor's goroutine.
type ImageFuture struct {
	Name string
	At   geom.Point

	done  chan struct{}
	asset asset.Asset
	err   error
}

// Done is closed when the decode has finished.
func (f *ImageFuture) Done() <-chan struct{} { return f.done }

// Err reports the decode failure, if any. Valid after Done is closed.
func (f *ImageFuture) Err() error { return f.err }

// Asset is the stored image. Valid after Done is closed.
func (f *ImageFuture) Asset() asset.Asset { return f.asset }

// InsertImage starts decoding r in the background and returns at once.
// The board is not touched until ApplyImage is called with the future.
func (e *Editor) InsertImage(name string, r io.Reader, at geom.Point) *ImageFuture {
	f := &ImageFuture{Name: name, At: at, done: make(chan struct{})}
	store := e.assets
	go func() {
		defer close(f.done)
		img, format, err := asset.Decode(name, r)
		if err != nil {
			f.err = err
			return
		}
		a, err := store.Put(name, img)
		if err != nil {
			f.err = fmt.Errorf("store image %q: %w", name, err)
			return
		}
		slog.Debug("image decoded", "name", name, "format", format, "asset", a.ID)
		f.asset = a
	}()
	return f
}

// ApplyImage adds a decoded image to the current layer as one change. A
// failed decode is reported and leaves the board and history untouched.
// It blocks until f is done.
func (e *Editor) ApplyImage(f *ImageFuture) error {
	<-f.done
	if f.err != nil {
		e.notifier.Notify("Could not insert image: "+f.err.Error(), SeverityError)
		return f.err
	}
	layer, err := e.editableLayer()
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}

	a := f.asset
	w, h := float64(a.Width), float64(a.Height)
	scale := math.Min((e.opts.CanvasWidth/2)/w, (e.opts.CanvasHeight/2)/h)
	sw, sh := w*scale, h*scale

	obj := &document.SceneObject{
		ID:   typeid.NewObjectID(),
		Kind: document.KindImage,
		Geometry: document.Geometry{
			X:      f.At.X - sw/2,
			Y:      f.At.Y - sh/2,
			Width:  sw,
			Height: sh,
		},
		Style: document.Style{Opacity: 1},
		Image: &document.ImageData{
			AssetID:       a.ID,
			URL:           a.URL,
			NaturalWidth:  w,
			NaturalHeight: h,
		},
	}
	if err := e.graph.AddObject(obj, layer.ID); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	e.sel.Set(obj.ID)
	slog.Info("image inserted", "asset", a.ID, "width", sw, "height", sh)
	return e.commit("insert image")
}
