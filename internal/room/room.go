package room

import (
	"strings"
	"sync"
	"time"

	"github.com/kapu/checkers-arena-go/internal/checkers"
	"github.com/kapu/checkers-arena-go/pkg/gamedto"
)

var (
	ErrRoomFull      = errf("room already has two players")
	ErrAlreadyInRoom = errf("player is already in this room")
	ErrNotInRoom     = errf("player is not in this room")
	ErrNotStarted    = errf("no game in progress")
	ErrOutOfTurn     = errf("not this player's turn")
	ErrEmptyText     = errf("message text is empty")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

// Identity is the profile bound to one live connection. Rooms keep value
// snapshots and refer back to the connection by ConnID.
type Identity struct {
	ConnID  string
	UserID  string
	Name    string
	Avatar  string
	Level   int
	Country string
}

// Info converts the identity to its outward representation.
func (i Identity) Info() gamedto.PlayerInfo {
	return gamedto.PlayerInfo{
		ID:      i.ConnID,
		UserID:  i.UserID,
		Name:    i.Name,
		Avatar:  i.Avatar,
		Level:   i.Level,
		Country: i.Country,
	}
}

// Room is one lobby/match container: up to two players, an optional game,
// an append-only chat log and a set of self-expiring reactions. The room owns
// its game, chat and reactions exclusively.
type Room struct {
	ID      string
	Creator Identity

	mu        sync.RWMutex
	players   []Identity
	game      *checkers.Game
	chat      []gamedto.ChatMessage
	reactions map[int64]gamedto.ReactionInfo
	timers    map[int64]*time.Timer
	started   bool
	closed    bool

	reactionTTL      time.Duration
	mandatoryCapture bool

	lastEventID int64
}

func newRoom(id string, creator Identity, ttl time.Duration, mandatoryCapture bool) *Room {
	return &Room{
		ID:               id,
		Creator:          creator,
		players:          []Identity{creator},
		reactions:        make(map[int64]gamedto.ReactionInfo),
		timers:           make(map[int64]*time.Timer),
		reactionTTL:      ttl,
		mandatoryCapture: mandatoryCapture,
	}
}

// nextID returns a time-derived monotonic event id (chat and reactions share
// the sequence, like the millisecond clock they are modeled on).
func (r *Room) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= r.lastEventID {
		id = r.lastEventID + 1
	}
	r.lastEventID = id
	return id
}

// AddPlayer admits id as the second player. The roster is unique by ConnID,
// so a connection can never occupy both slots. Admitting the second player
// starts the game immediately: player 1 plays red, player 2 plays black.
// The returned flag reports whether this admission started the game.
func (r *Room) AddPlayer(id Identity) (started bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.member(id.ConnID) != nil {
		return false, ErrAlreadyInRoom
	}
	if len(r.players) >= 2 {
		return false, ErrRoomFull
	}
	r.players = append(r.players, id)
	if len(r.players) == 2 {
		var opts []checkers.Option
		if r.mandatoryCapture {
			opts = append(opts, checkers.WithMandatoryCapture())
		}
		r.game = checkers.NewGame(r.players[0].ConnID, r.players[1].ConnID, opts...)
		r.started = true
		return true, nil
	}
	return false, nil
}

// RemovePlayer drops the roster entry for connID. Any game in progress is
// discarded unconditionally; there is no forfeit result and no reconnect
// path. empty reports whether the roster is now empty.
func (r *Room) RemovePlayer(connID string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.ConnID == connID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			removed = true
			break
		}
	}
	if removed && r.started {
		r.started = false
		r.game = nil
	}
	return removed, len(r.players) == 0
}

// HasPlayer reports roster membership by connection id.
func (r *Room) HasPlayer(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.member(connID) != nil
}

func (r *Room) member(connID string) *Identity {
	for i := range r.players {
		if r.players[i].ConnID == connID {
			return &r.players[i]
		}
	}
	return nil
}

// ApplyMove performs one move for the player bound to connID, enforcing both
// membership and turn order before consulting the engine.
func (r *Room) ApplyMove(connID string, from, to checkers.Pos) (checkers.Move, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.game == nil {
		return checkers.Move{}, ErrNotStarted
	}
	color, ok := r.game.ColorOf(connID)
	if !ok {
		return checkers.Move{}, ErrNotInRoom
	}
	if r.game.Turn != color {
		return checkers.Move{}, ErrOutOfTurn
	}
	return r.game.Move(from, to, color)
}

// AddChatMessage appends a chat entry authored by a roster member, snapshotting
// the author's name, avatar and level at send time.
func (r *Room) AddChatMessage(connID, text string) (gamedto.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return gamedto.ChatMessage{}, ErrEmptyText
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	author := r.member(connID)
	if author == nil {
		return gamedto.ChatMessage{}, ErrNotInRoom
	}
	msg := gamedto.ChatMessage{
		ID:           r.nextID(),
		PlayerID:     author.ConnID,
		PlayerName:   author.Name,
		PlayerAvatar: author.Avatar,
		PlayerLevel:  author.Level,
		Message:      text,
		Timestamp:    time.Now(),
	}
	r.chat = append(r.chat, msg)
	return msg, nil
}

// AddReaction records a transient reaction authored by a roster member and
// schedules its removal after the room's TTL. The removal is keyed to the
// reaction id and cancelled when the room closes, so a late fire can never
// touch a deleted room.
func (r *Room) AddReaction(connID, kind string) (gamedto.ReactionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	author := r.member(connID)
	if author == nil {
		return gamedto.ReactionInfo{}, ErrNotInRoom
	}
	now := time.Now()
	reaction := gamedto.ReactionInfo{
		ID:           r.nextID(),
		PlayerID:     author.ConnID,
		PlayerName:   author.Name,
		PlayerAvatar: author.Avatar,
		Reaction:     kind,
		Timestamp:    now,
		ExpiresAt:    now.Add(r.reactionTTL),
	}
	r.reactions[reaction.ID] = reaction
	r.timers[reaction.ID] = time.AfterFunc(r.reactionTTL, func() { r.expireReaction(reaction.ID) })
	return reaction, nil
}

func (r *Room) expireReaction(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	delete(r.reactions, id)
	delete(r.timers, id)
}

// Close stops all pending reaction timers. Called by the registry on delete.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
