package room

import (
	"github.com/kapu/checkers-arena-go/internal/checkers"
	"github.com/kapu/checkers-arena-go/pkg/gamedto"
)

// Snapshot returns the full outward view of the room.
func (r *Room) Snapshot() gamedto.RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]gamedto.PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p.Info())
	}
	chat := append([]gamedto.ChatMessage(nil), r.chat...)
	reactions := make([]gamedto.ReactionInfo, 0, len(r.reactions))
	for _, re := range r.reactions {
		reactions = append(reactions, re)
	}

	snap := gamedto.RoomSnapshot{
		ID:        r.ID,
		Creator:   r.Creator.Info(),
		Players:   players,
		Started:   r.started,
		Chat:      chat,
		Reactions: reactions,
	}
	if r.game != nil {
		gs := r.gameSnapshotLocked()
		snap.Game = &gs
	}
	return snap
}

// GameSnapshot returns the outward view of the active game, if any.
func (r *Room) GameSnapshot() (gamedto.GameSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.game == nil {
		return gamedto.GameSnapshot{}, false
	}
	return r.gameSnapshotLocked(), true
}

func (r *Room) gameSnapshotLocked() gamedto.GameSnapshot {
	snap := gamedto.GameSnapshot{
		Players:     make(map[string]gamedto.PlayerInfo, 2),
		CurrentTurn: string(r.game.Turn),
		GameOver:    r.game.Over,
		Winner:      string(r.game.Winner),
		MoveCount:   len(r.game.History),
	}
	for _, p := range r.players {
		if color, ok := r.game.ColorOf(p.ConnID); ok {
			snap.Players[string(color)] = p.Info()
		}
	}
	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			if piece := r.game.Board[row][col]; piece != nil {
				snap.Board[row][col] = &gamedto.PieceInfo{Color: string(piece.Color), King: piece.King}
			}
		}
	}
	return snap
}

// Summary returns the public listing entry.
func (r *Room) Summary() gamedto.RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return gamedto.RoomSummary{
		ID:          r.ID,
		Creator:     r.Creator.Name,
		PlayerCount: len(r.players),
	}
}

// Joinable reports whether the room still has a free slot and no running game.
func (r *Room) Joinable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) < 2 && !r.started
}

// PlayerIdentity looks up a roster member's identity snapshot.
func (r *Room) PlayerIdentity(connID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.member(connID); p != nil {
		return *p, true
	}
	return Identity{}, false
}

// BoardSnapshot copies the current board and last move for rendering without
// holding the room lock during image work.
func (r *Room) BoardSnapshot() (checkers.Board, *checkers.Move, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.game == nil {
		return checkers.Board{}, nil, false
	}
	board := *r.game.Board
	var last *checkers.Move
	if n := len(r.game.History); n > 0 {
		mv := r.game.History[n-1]
		last = &mv
	}
	return board, last, true
}
