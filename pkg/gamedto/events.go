package gamedto

// LoginRequest carries the externally sourced profile fields bound at login.
// Field names follow the upstream profile document.
type LoginRequest struct {
	ID           string `json:"id"`
	StageName    string `json:"stage_name"`
	ProfileImage string `json:"profile_image"`
	Level        int    `json:"level"`
	Country      string `json:"country"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type MakeMoveRequest struct {
	RoomID  string `json:"roomId"`
	FromRow int    `json:"fromRow"`
	FromCol int    `json:"fromCol"`
	ToRow   int    `json:"toRow"`
	ToCol   int    `json:"toCol"`
}

type SendMessageRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type SendReactionRequest struct {
	RoomID   string `json:"roomId"`
	Reaction string `json:"reaction"`
}

type RoomCreatedPayload struct {
	RoomID string       `json:"roomId"`
	Room   RoomSnapshot `json:"room"`
}

type PlayerJoinedPayload struct {
	Room      RoomSnapshot `json:"room"`
	NewPlayer PlayerInfo   `json:"newPlayer"`
}

type GameStartedPayload struct {
	Game GameSnapshot `json:"game"`
	Room RoomSnapshot `json:"room"`
}

type MoveAppliedPayload struct {
	Game     GameSnapshot `json:"game"`
	LastMove MoveInfo     `json:"lastMove"`
}

type GameEndedPayload struct {
	Winner     string     `json:"winner"`
	WinnerData PlayerInfo `json:"winnerData"`
}

type PlayerLeftPayload struct {
	Room         RoomSnapshot `json:"room"`
	LeftPlayerID string       `json:"leftPlayerId"`
}

type RoomsListPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

// NoticePayload carries a human-readable reason for moveRejected and errorNotice.
type NoticePayload struct {
	Reason string `json:"reason"`
}
