package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/kapu/checkers-arena-go/internal/checkers"
	"github.com/kapu/checkers-arena-go/internal/msgcat"
	"github.com/kapu/checkers-arena-go/internal/obslog"
	"github.com/kapu/checkers-arena-go/internal/room"
	"github.com/kapu/checkers-arena-go/pkg/gamedto"
)

// inbound is one unit of work for the event loop: either a parsed frame or a
// connection teardown.
type inbound struct {
	c          *client
	env        *gamedto.Envelope
	disconnect bool
}

// Hub routes every inbound event through a single goroutine, so handlers run
// to completion in arrival order and room state needs no cross-connection
// coordination beyond the loop itself. It also owns the session registry:
// the identity bound to each connection between login and disconnect.
type Hub struct {
	registry *room.Registry
	messages *msgcat.Catalog

	events chan inbound

	mu       sync.RWMutex
	clients  map[string]*client
	sessions map[string]room.Identity
}

func New(registry *room.Registry, messages *msgcat.Catalog) *Hub {
	return &Hub{
		registry: registry,
		messages: messages,
		events:   make(chan inbound, 256),
		clients:  make(map[string]*client),
		sessions: make(map[string]room.Identity),
	}
}

// Run processes events until ctx is cancelled. Exactly one Run per hub.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			if ev.disconnect {
				h.handleDisconnect(ev.c)
				continue
			}
			h.dispatch(ev.c, ev.env)
		}
	}
}

// Close drops every live connection during shutdown. Blocked readers unwind
// with a read error; the per-connection teardown path stays a no-op because
// the client is already unregistered here.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cl := range h.clients {
		if cl.conn != nil {
			_ = cl.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		delete(h.clients, id)
		delete(h.sessions, id)
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
}

func (h *Hub) identity(cl *client) (room.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.sessions[cl.id]
	return id, ok
}

func (h *Hub) dispatch(cl *client, env *gamedto.Envelope) {
	switch env.T {
	case gamedto.EvLogin:
		h.handleLogin(cl, env.M)
	case gamedto.EvCreateRoom:
		h.handleCreateRoom(cl)
	case gamedto.EvJoinRoom:
		h.handleJoinRoom(cl, env.M)
	case gamedto.EvMakeMove:
		h.handleMakeMove(cl, env.M)
	case gamedto.EvSendMessage:
		h.handleSendMessage(cl, env.M)
	case gamedto.EvSendReaction:
		h.handleSendReaction(cl, env.M)
	case gamedto.EvListRooms:
		h.handleListRooms(cl)
	default:
		obslog.L().Debug("unknown_event", zap.String("conn", cl.id), zap.String("event", env.T))
	}
}

func (h *Hub) handleLogin(cl *client, raw json.RawMessage) {
	var req gamedto.LoginRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.notice(cl, gamedto.EvErrorNotice, "error.not_logged_in", nil)
		return
	}
	ident := room.Identity{
		ConnID:  cl.id,
		UserID:  req.ID,
		Name:    req.StageName,
		Avatar:  req.ProfileImage,
		Level:   req.Level,
		Country: req.Country,
	}
	h.mu.Lock()
	h.sessions[cl.id] = ident
	h.mu.Unlock()
	obslog.L().Info("login", zap.String("conn", cl.id), zap.String("user", ident.UserID), zap.String("name", ident.Name))
	h.sendEvent(cl, gamedto.EvLoginAccepted, ident.Info())
}

func (h *Hub) handleCreateRoom(cl *client) {
	ident, ok := h.identity(cl)
	if !ok {
		h.notice(cl, gamedto.EvErrorNotice, "error.not_logged_in", nil)
		return
	}
	r, err := h.registry.Create(ident)
	if err != nil {
		obslog.L().Error("room_create_failed", zap.String("conn", cl.id), zap.Error(err))
		h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		return
	}
	h.sendEvent(cl, gamedto.EvRoomCreated, gamedto.RoomCreatedPayload{RoomID: r.ID, Room: r.Snapshot()})
}

func (h *Hub) handleJoinRoom(cl *client, raw json.RawMessage) {
	var req gamedto.JoinRoomRequest
	_ = json.Unmarshal(raw, &req)
	ident, ok := h.identity(cl)
	if !ok {
		h.notice(cl, gamedto.EvErrorNotice, "error.not_logged_in", nil)
		return
	}
	r, found := h.registry.Get(req.RoomID)
	if !found {
		h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		return
	}
	started, err := r.AddPlayer(ident)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrAlreadyInRoom):
			h.notice(cl, gamedto.EvErrorNotice, "error.already_in_room", nil)
		default:
			h.notice(cl, gamedto.EvErrorNotice, "error.room_full", nil)
		}
		return
	}
	snap := r.Snapshot()
	h.broadcast(snap, gamedto.EvPlayerJoined, gamedto.PlayerJoinedPayload{Room: snap, NewPlayer: ident.Info()})
	if started {
		obslog.L().Info("game_started", zap.String("room", r.ID))
		h.broadcast(snap, gamedto.EvGameStarted, gamedto.GameStartedPayload{Game: *snap.Game, Room: snap})
	}
}

func (h *Hub) handleMakeMove(cl *client, raw json.RawMessage) {
	var req gamedto.MakeMoveRequest
	_ = json.Unmarshal(raw, &req)
	r, found := h.registry.Get(req.RoomID)
	if !found {
		h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		return
	}

	mv, err := r.ApplyMove(cl.id,
		checkers.Pos{Row: req.FromRow, Col: req.FromCol},
		checkers.Pos{Row: req.ToRow, Col: req.ToCol},
	)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrOutOfTurn):
			h.notice(cl, gamedto.EvMoveRejected, "move.out_of_turn", nil)
		case errors.Is(err, room.ErrNotStarted):
			h.notice(cl, gamedto.EvMoveRejected, "move.no_game", map[string]any{"Room": r.ID})
		case errors.Is(err, room.ErrNotInRoom):
			h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		default:
			obslog.L().Debug("move_rejected", zap.String("room", r.ID), zap.String("conn", cl.id), zap.Error(err))
			h.notice(cl, gamedto.EvMoveRejected, "move.illegal", nil)
		}
		return
	}

	snap := r.Snapshot()
	game := snap.Game
	h.broadcast(snap, gamedto.EvMoveApplied, gamedto.MoveAppliedPayload{Game: *game, LastMove: moveInfo(mv)})
	if game.GameOver {
		obslog.L().Info("game_over", zap.String("room", r.ID), zap.String("winner", game.Winner))
		h.broadcast(snap, gamedto.EvGameEnded, gamedto.GameEndedPayload{
			Winner:     game.Winner,
			WinnerData: game.Players[game.Winner],
		})
	}
}

func (h *Hub) handleSendMessage(cl *client, raw json.RawMessage) {
	var req gamedto.SendMessageRequest
	_ = json.Unmarshal(raw, &req)
	r, found := h.registry.Get(req.RoomID)
	if !found {
		h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		return
	}
	msg, err := r.AddChatMessage(cl.id, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrEmptyText):
			h.notice(cl, gamedto.EvErrorNotice, "error.chat_empty", nil)
		default:
			h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		}
		return
	}
	h.broadcast(r.Snapshot(), gamedto.EvChatPosted, msg)
}

func (h *Hub) handleSendReaction(cl *client, raw json.RawMessage) {
	var req gamedto.SendReactionRequest
	_ = json.Unmarshal(raw, &req)
	r, found := h.registry.Get(req.RoomID)
	if !found {
		h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		return
	}
	re, err := r.AddReaction(cl.id, req.Reaction)
	if err != nil {
		h.notice(cl, gamedto.EvErrorNotice, "error.room_not_found", nil)
		return
	}
	h.broadcast(r.Snapshot(), gamedto.EvReactionPosted, re)
}

func (h *Hub) handleListRooms(cl *client) {
	h.sendEvent(cl, gamedto.EvRoomsList, gamedto.RoomsListPayload{Rooms: h.registry.ListJoinable()})
}

func (h *Hub) handleDisconnect(cl *client) {
	h.mu.Lock()
	if _, open := h.clients[cl.id]; !open {
		h.mu.Unlock()
		return
	}
	delete(h.clients, cl.id)
	delete(h.sessions, cl.id)
	close(cl.send)
	h.mu.Unlock()
	obslog.L().Info("conn_closed", zap.String("conn", cl.id))

	r, found := h.registry.FindByConn(cl.id)
	if !found {
		return
	}
	removed, empty := r.RemovePlayer(cl.id)
	if !removed {
		return
	}
	if empty {
		h.registry.Delete(r.ID)
		return
	}
	snap := r.Snapshot()
	h.broadcast(snap, gamedto.EvPlayerLeft, gamedto.PlayerLeftPayload{Room: snap, LeftPlayerID: cl.id})
}

// broadcast fans an event out to every connection on the snapshot's roster.
func (h *Hub) broadcast(snap gamedto.RoomSnapshot, t string, payload any) {
	b, err := envelopeBytes(t, payload)
	if err != nil {
		obslog.L().Error("encode_event", zap.String("event", t), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range snap.Players {
		if cl, ok := h.clients[p.ID]; ok {
			cl.trySend(b)
		}
	}
}

func (h *Hub) sendEvent(cl *client, t string, payload any) {
	b, err := envelopeBytes(t, payload)
	if err != nil {
		obslog.L().Error("encode_event", zap.String("event", t), zap.Error(err))
		return
	}
	cl.trySend(b)
}

// notice renders a catalog message and sends it to one connection as the
// given event (errorNotice or moveRejected). Failed operations are never
// silent toward the submitter.
func (h *Hub) notice(cl *client, t, key string, data map[string]any) {
	reason, err := h.messages.Render(key, data)
	if err != nil {
		obslog.L().Error("message_render", zap.String("key", key), zap.Error(err))
		reason = key
	}
	h.sendEvent(cl, t, gamedto.NoticePayload{Reason: reason})
}

func (cl *client) trySend(b []byte) {
	select {
	case cl.send <- b:
	default:
	}
}

func envelopeBytes(t string, payload any) ([]byte, error) {
	var m json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		m = b
	}
	return json.Marshal(gamedto.Envelope{T: t, M: m})
}

func moveInfo(mv checkers.Move) gamedto.MoveInfo {
	info := gamedto.MoveInfo{
		From:       gamedto.Pos{Row: mv.From.Row, Col: mv.From.Col},
		To:         gamedto.Pos{Row: mv.To.Row, Col: mv.To.Col},
		Player:     string(mv.Player),
		BecameKing: mv.BecameKing,
	}
	if mv.Captured != nil {
		info.Captured = &gamedto.PieceInfo{Color: string(mv.Captured.Color), King: mv.Captured.King}
	}
	return info
}
