package gamedto

import "time"

// PlayerInfo is the outward view of one logged-in participant.
type PlayerInfo struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	Level   int    `json:"level"`
	Country string `json:"country"`
}

// PieceInfo mirrors one board square; nil means empty.
type PieceInfo struct {
	Color string `json:"color"`
	King  bool   `json:"isKing"`
}

type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// MoveInfo is one entry of the game's move history.
type MoveInfo struct {
	From       Pos        `json:"from"`
	To         Pos        `json:"to"`
	Player     string     `json:"player"`
	Captured   *PieceInfo `json:"captured,omitempty"`
	BecameKing bool       `json:"becameKing"`
}

// GameSnapshot is the full authoritative match state sent to room members.
type GameSnapshot struct {
	Players     map[string]PlayerInfo `json:"players"` // keyed "red"/"black"
	Board       [8][8]*PieceInfo      `json:"board"`
	CurrentTurn string                `json:"currentTurn"`
	GameOver    bool                  `json:"gameOver"`
	Winner      string                `json:"winner,omitempty"`
	MoveCount   int                   `json:"moveCount"`
}

// RoomSnapshot is the full room state sent to room members.
type RoomSnapshot struct {
	ID        string         `json:"id"`
	Creator   PlayerInfo     `json:"creator"`
	Players   []PlayerInfo   `json:"players"`
	Started   bool           `json:"isGameStarted"`
	Game      *GameSnapshot  `json:"game,omitempty"`
	Chat      []ChatMessage  `json:"chat"`
	Reactions []ReactionInfo `json:"reactions"`
}

// RoomSummary is the public listing entry for joinable rooms.
type RoomSummary struct {
	ID          string `json:"id"`
	Creator     string `json:"creator"`
	PlayerCount int    `json:"playerCount"`
}

// ChatMessage is one chat log entry with the author snapshot taken at send time.
type ChatMessage struct {
	ID           int64     `json:"id"`
	PlayerID     string    `json:"playerId"`
	PlayerName   string    `json:"playerName"`
	PlayerAvatar string    `json:"playerAvatar"`
	PlayerLevel  int       `json:"playerLevel"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReactionInfo is one transient reaction with the author snapshot taken at send time.
type ReactionInfo struct {
	ID           int64     `json:"id"`
	PlayerID     string    `json:"playerId"`
	PlayerName   string    `json:"playerName"`
	PlayerAvatar string    `json:"playerAvatar"`
	Reaction     string    `json:"reaction"`
	Timestamp    time.Time `json:"timestamp"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
