package project

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/whiteboard/internal/auth"
	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/store"
)

const maxProjectSize = 32 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p, err := h.service.Get(r.Context(), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProjectSize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "project too large"})
		return
	}

	p, err := h.service.Put(r.Context(), name, data)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	slog.Info("project saved", "name", name, "objects", len(p.Objects), "user", auth.UserIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "timestamp": p.Timestamp})
}

func handleServiceError(w http.ResponseWriter, err error) {
	var le *document.LoadError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, store.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &le):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrBoardOpen):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
