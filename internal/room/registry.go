package room

import (
	"crypto/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/checkers-arena-go/internal/obslog"
	"github.com/kapu/checkers-arena-go/pkg/gamedto"
)

// ErrCodeExhausted is returned when code generation keeps colliding with live
// rooms. With the default alphabet and length this effectively never happens.
var ErrCodeExhausted = errf("could not allocate a unique room code")

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeAttempts = 5

// Config tunes registry-owned room behavior.
type Config struct {
	CodeLen          int
	ReactionTTL      time.Duration
	MandatoryCapture bool
}

func (c Config) withDefaults() Config {
	if c.CodeLen <= 0 {
		c.CodeLen = 6
	}
	if c.ReactionTTL <= 0 {
		c.ReactionTTL = 5 * time.Second
	}
	return c
}

// Registry is the process-wide directory of live rooms. It is an explicitly
// owned object: construct one per process (or per test) and pass it around.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   Config
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg.withDefaults(),
	}
}

// Create registers a new room with creator as its sole player. Codes are
// existence-checked under the lock and regenerated on collision.
func (g *Registry) Create(creator Identity) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < codeAttempts; i++ {
		code, err := codeGen(g.cfg.CodeLen)
		if err != nil {
			return nil, err
		}
		if _, taken := g.rooms[code]; taken {
			continue
		}
		r := newRoom(code, creator, g.cfg.ReactionTTL, g.cfg.MandatoryCapture)
		g.rooms[code] = r
		obslog.L().Info("room_created", zap.String("room", code), zap.String("creator", creator.ConnID))
		return r, nil
	}
	return nil, ErrCodeExhausted
}

// Get looks up a live room by id.
func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// ListJoinable returns public summaries of rooms with a free slot and no
// running game.
func (g *Registry) ListJoinable() []gamedto.RoomSummary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]gamedto.RoomSummary, 0, len(g.rooms))
	for _, r := range g.rooms {
		if r.Joinable() {
			out = append(out, r.Summary())
		}
	}
	return out
}

// FindByConn returns the first room whose roster contains connID.
func (g *Registry) FindByConn(connID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, r := range g.rooms {
		if r.HasPlayer(connID) {
			return r, true
		}
	}
	return nil, false
}

// Delete removes a room and stops its pending reaction timers.
func (g *Registry) Delete(id string) {
	g.mu.Lock()
	r, ok := g.rooms[id]
	delete(g.rooms, id)
	g.mu.Unlock()
	if ok {
		r.Close()
		obslog.L().Info("room_deleted", zap.String("room", id))
	}
}

// Close tears down every live room; used on shutdown and in tests.
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, r := range g.rooms {
		r.Close()
		delete(g.rooms, id)
	}
}

func codeGen(n int) (string, error) {
	// Rejection sampling keeps the alphabet distribution uniform; bytes at or
	// above the largest multiple of the alphabet size are discarded.
	limit := byte(256 - 256%len(codeAlphabet))
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
