package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/checkers-arena-go/internal/hub"
	"github.com/kapu/checkers-arena-go/internal/msgcat"
	"github.com/kapu/checkers-arena-go/internal/obslog"
	"github.com/kapu/checkers-arena-go/internal/profile"
	"github.com/kapu/checkers-arena-go/internal/render"
	"github.com/kapu/checkers-arena-go/internal/room"
)

// Server wires the websocket endpoint, the profile pass-through and the board
// image endpoint onto one mux, with the static client served from publicDir.
type Server struct {
	hub       *hub.Hub
	rooms     *room.Registry
	profiles  *profile.Client
	renderer  render.BoardRenderer
	messages  *msgcat.Catalog
	publicDir string
}

func New(h *hub.Hub, rooms *room.Registry, profiles *profile.Client, renderer render.BoardRenderer, messages *msgcat.Catalog, publicDir string) *Server {
	return &Server{
		hub:       h,
		rooms:     rooms,
		profiles:  profiles,
		renderer:  renderer,
		messages:  messages,
		publicDir: publicDir,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("POST /api/user", s.handleProfile)
	mux.HandleFunc("GET /api/rooms/{id}/board.png", s.handleBoardImage)
	mux.Handle("/", http.FileServer(http.Dir(s.publicDir)))
	return mux
}

// handleProfile forwards a profile lookup to the external service and returns
// the upstream document verbatim. The id may arrive as a JSON string or number.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id := strings.Trim(strings.TrimSpace(string(body.ID)), `"`)
	if id == "" || id == "null" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	doc, err := s.profiles.Lookup(r.Context(), id)
	if err != nil {
		obslog.L().Warn("profile_lookup_failed", zap.String("id", id), zap.Error(err))
		s.writeJSONError(w, http.StatusInternalServerError, "profile.unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// handleBoardImage renders the current position of a running game as a PNG.
func (s *Server) handleBoardImage(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.rooms.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	board, last, running := rm.BoardSnapshot()
	if !running {
		http.NotFound(w, r)
		return
	}

	var opts render.Options
	if last != nil {
		opts.Highlight = &render.MoveHighlight{From: last.From, To: last.To}
	}
	data, err := s.renderer.RenderPNG(r.Context(), board, opts)
	if err != nil {
		obslog.L().Error("board_render_failed", zap.String("room", rm.ID), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, key string) {
	msg, err := s.messages.Render(key, nil)
	if err != nil {
		msg = key
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
