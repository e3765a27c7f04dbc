package asset

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	store *Dir
}

// NewHandler creates a new asset handler backed by a directory store.
func NewHandler(store *Dir) *Handler {
	return &Handler{store: store}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// The declared content type is not trusted; the decoder sniffs the format.
	img, format, err := Decode(header.Filename, file)
	if err != nil {
		var decodeErr *ImageDecodeError
		if errors.As(err, &decodeErr) {
			http.Error(w, "invalid image: "+decodeErr.Err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid image", http.StatusBadRequest)
		return
	}

	a, err := h.store.Put(header.Filename, img)
	if err != nil {
		slog.Error("store asset", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	slog.Info("asset uploaded", "id", a.ID, "format", format, "width", a.Width, "height", a.Height)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(a)
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.store.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}
