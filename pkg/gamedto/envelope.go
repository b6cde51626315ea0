package gamedto

import "encoding/json"

// Envelope is the wire frame for every websocket event, in both directions.
// T names the event; M carries the event payload, if any.
type Envelope struct {
	T string          `json:"t"`
	M json.RawMessage `json:"m,omitempty"`
}

// Inbound event names.
const (
	EvLogin        = "login"
	EvCreateRoom   = "createRoom"
	EvJoinRoom     = "joinRoom"
	EvMakeMove     = "makeMove"
	EvSendMessage  = "sendMessage"
	EvSendReaction = "sendReaction"
	EvListRooms    = "listRooms"
)

// Outbound event names.
const (
	EvLoginAccepted  = "loginAccepted"
	EvRoomCreated    = "roomCreated"
	EvPlayerJoined   = "playerJoined"
	EvGameStarted    = "gameStarted"
	EvMoveApplied    = "moveApplied"
	EvMoveRejected   = "moveRejected"
	EvGameEnded      = "gameEnded"
	EvChatPosted     = "chatPosted"
	EvReactionPosted = "reactionPosted"
	EvRoomsList      = "roomsList"
	EvPlayerLeft     = "playerLeft"
	EvErrorNotice    = "errorNotice"
)
