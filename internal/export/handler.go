// Package export renders saved boards to raster images over HTTP.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/render"
	"github.com/inamate/whiteboard/internal/scene"
	"github.com/inamate/whiteboard/internal/store"
)

const (
	maxDimension   = 8192
	defaultQuality = 90
)

type Handler struct {
	store  store.Store
	images render.ImageSource
	width  int
	height int
}

// NewHandler renders boards from st at width x height unless a request
// asks for another size.
func NewHandler(st store.Store, images render.ImageSource, width, height int) *Handler {
	return &Handler{store: st, images: images, width: width, height: height}
}

// Preview serves GET /api/projects/{name}/preview.png.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, err := h.load(r, name)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.rasterize(&buf, p, "png", h.width, h.height, 0); err != nil {
		slog.Error("render preview", "name", name, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

// ExportImage serves GET /api/projects/{name}/export?format=png|jpeg as a
// download. width, height and quality are optional.
func (h *Handler) ExportImage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q := r.URL.Query()

	format := strings.ToLower(q.Get("format"))
	switch format {
	case "":
		format = "png"
	case "jpg":
		format = "jpeg"
	case "png", "jpeg":
	default:
		http.Error(w, "invalid format: must be png or jpeg", http.StatusBadRequest)
		return
	}

	width, err := dimension(q.Get("width"), h.width)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := dimension(q.Get("height"), h.height)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	quality, err := strconv.Atoi(q.Get("quality"))
	if err != nil || quality <= 0 || quality > 100 {
		quality = defaultQuality
	}

	p, err := h.load(r, name)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("export started", "name", name, "format", format, "width", width, "height", height)

	var buf bytes.Buffer
	if err := h.rasterize(&buf, p, format, width, height, quality); err != nil {
		slog.Error("export failed", "name", name, "error", err)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, sanitize(name), ext))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())

	slog.Info("export complete", "name", name, "format", format, "size", buf.Len())
}

func (h *Handler) load(r *http.Request, name string) (*document.Project, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := h.store.ReadBytes(r.Context(), name)
	if err != nil {
		return nil, err
	}
	return document.Decode(data)
}

func (h *Handler) rasterize(buf *bytes.Buffer, p *document.Project, format string, width, height, quality int) error {
	g := scene.NewGraph()
	g.Replace(p)
	opts := render.RasterOptions{
		Width:      width,
		Height:     height,
		Background: "#ffffff",
		View:       p.View,
		Images:     h.images,
	}
	if format == "jpeg" {
		return render.RasterizeJPEG(buf, g.PaintOrder(), opts, quality)
	}
	return render.Rasterize(buf, g.PaintOrder(), opts)
}

func dimension(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > maxDimension {
		return 0, fmt.Errorf("invalid dimension %q", v)
	}
	return n, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

func writeError(w http.ResponseWriter, err error) {
	var le *document.LoadError
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &le):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		slog.Error("load board", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
