package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/whiteboard/internal/document"
	"github.com/inamate/whiteboard/internal/store"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

type Handler struct {
	manager *Manager
	auth    TokenValidator
	origins []string
}

func NewHandler(manager *Manager, auth TokenValidator, origins []string) *Handler {
	return &Handler{manager: manager, auth: auth, origins: origins}
}

// ServeWS upgrades to a websocket attached to the session of ?board=.
// Browsers cannot set headers on websockets, so the token is a query parameter.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	board := r.URL.Query().Get("board")
	if err := store.ValidateName(board); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	userID := "owner"
	if h.auth != nil {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		var err error
		userID, err = h.auth.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
	}

	s, err := h.manager.Open(r.Context(), board)
	if err != nil {
		var le *document.LoadError
		if errors.As(err, &le) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("open session", "board", board, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to open board"})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(s, conn, userID, uuid.New().String())
	// The session may stop between Open and Register when its last client
	// just left; a second Open starts a fresh one from the saved board.
	for attempt := 0; !s.Register(client); attempt++ {
		if attempt > 0 {
			conn.Close(websocket.StatusInternalError, "session unavailable")
			return
		}
		if s, err = h.manager.Open(r.Context(), board); err != nil {
			conn.Close(websocket.StatusInternalError, "session unavailable")
			return
		}
		client.session = s
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
