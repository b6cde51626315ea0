package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kapu/checkers-arena-go/internal/msgcat"
	"github.com/kapu/checkers-arena-go/internal/room"
	"github.com/kapu/checkers-arena-go/pkg/gamedto"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return New(room.NewRegistry(room.Config{ReactionTTL: 50 * time.Millisecond}), cat)
}

func newTestClient(h *Hub, id string) *client {
	cl := &client{id: id, send: make(chan []byte, 32)}
	h.register(cl)
	return cl
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

// recv pops one already-buffered outbound frame; dispatch is synchronous so
// anything sent is on the channel before it returns.
func recv(t *testing.T, cl *client) gamedto.Envelope {
	t.Helper()
	select {
	case b := <-cl.send:
		var env gamedto.Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return env
	default:
		t.Fatalf("no frame buffered for %s", cl.id)
		return gamedto.Envelope{}
	}
}

func expectNone(t *testing.T, cl *client) {
	t.Helper()
	select {
	case b := <-cl.send:
		t.Fatalf("unexpected frame for %s: %s", cl.id, b)
	default:
	}
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}

func loginAs(t *testing.T, h *Hub, cl *client, name string) {
	t.Helper()
	h.dispatch(cl, &gamedto.Envelope{T: gamedto.EvLogin, M: mustRaw(t, gamedto.LoginRequest{
		ID: "u-" + cl.id, StageName: name, Level: 7, Country: "TR",
	})})
	env := recv(t, cl)
	if env.T != gamedto.EvLoginAccepted {
		t.Fatalf("expected loginAccepted, got %s", env.T)
	}
}

func createRoomFor(t *testing.T, h *Hub, cl *client) string {
	t.Helper()
	h.dispatch(cl, &gamedto.Envelope{T: gamedto.EvCreateRoom})
	env := recv(t, cl)
	if env.T != gamedto.EvRoomCreated {
		t.Fatalf("expected roomCreated, got %s", env.T)
	}
	var p gamedto.RoomCreatedPayload
	decode(t, env.M, &p)
	if p.RoomID == "" || p.Room.ID != p.RoomID {
		t.Fatalf("inconsistent roomCreated payload: %+v", p)
	}
	return p.RoomID
}

func TestLoginBindsIdentity(t *testing.T) {
	h := newTestHub(t)
	cl := newTestClient(h, "c1")

	h.dispatch(cl, &gamedto.Envelope{T: gamedto.EvLogin, M: mustRaw(t, gamedto.LoginRequest{
		ID: "u1", StageName: "Ada", ProfileImage: "http://x/ada.png", Level: 12, Country: "TR",
	})})

	env := recv(t, cl)
	if env.T != gamedto.EvLoginAccepted {
		t.Fatalf("expected loginAccepted, got %s", env.T)
	}
	var info gamedto.PlayerInfo
	decode(t, env.M, &info)
	if info.ID != "c1" || info.UserID != "u1" || info.Name != "Ada" || info.Level != 12 {
		t.Fatalf("identity not echoed: %+v", info)
	}
}

func TestCreateRoomRequiresLogin(t *testing.T) {
	h := newTestHub(t)
	cl := newTestClient(h, "c1")

	h.dispatch(cl, &gamedto.Envelope{T: gamedto.EvCreateRoom})
	env := recv(t, cl)
	if env.T != gamedto.EvErrorNotice {
		t.Fatalf("expected errorNotice, got %s", env.T)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	h := newTestHub(t)
	cl := newTestClient(h, "c1")
	loginAs(t, h, cl, "Ada")

	h.dispatch(cl, &gamedto.Envelope{T: gamedto.EvJoinRoom, M: mustRaw(t, gamedto.JoinRoomRequest{RoomID: "NOPE"})})
	env := recv(t, cl)
	if env.T != gamedto.EvErrorNotice {
		t.Fatalf("expected errorNotice, got %s", env.T)
	}
}

func TestJoinOwnRoomRejected(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	loginAs(t, h, a, "Ada")
	roomID := createRoomFor(t, h, a)

	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvJoinRoom, M: mustRaw(t, gamedto.JoinRoomRequest{RoomID: roomID})})
	env := recv(t, a)
	if env.T != gamedto.EvErrorNotice {
		t.Fatalf("expected errorNotice, got %s", env.T)
	}
	// No playerJoined or gameStarted may follow the rejection.
	expectNone(t, a)

	r, ok := h.registry.Get(roomID)
	if !ok {
		t.Fatal("room vanished")
	}
	snap := r.Snapshot()
	if len(snap.Players) != 1 || snap.Started || snap.Game != nil {
		t.Fatalf("self-join mutated the room: %+v", snap)
	}
	if !r.Joinable() {
		t.Fatal("room no longer joinable after rejected self-join")
	}
}

func TestMatchFlow(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	b := newTestClient(h, "c-b")
	loginAs(t, h, a, "Ada")
	loginAs(t, h, b, "Bora")

	roomID := createRoomFor(t, h, a)

	h.dispatch(b, &gamedto.Envelope{T: gamedto.EvJoinRoom, M: mustRaw(t, gamedto.JoinRoomRequest{RoomID: roomID})})

	for _, cl := range []*client{a, b} {
		env := recv(t, cl)
		if env.T != gamedto.EvPlayerJoined {
			t.Fatalf("%s: expected playerJoined, got %s", cl.id, env.T)
		}
		var pj gamedto.PlayerJoinedPayload
		decode(t, env.M, &pj)
		if pj.NewPlayer.ID != "c-b" || len(pj.Room.Players) != 2 {
			t.Fatalf("%s: bad playerJoined payload: %+v", cl.id, pj)
		}

		env = recv(t, cl)
		if env.T != gamedto.EvGameStarted {
			t.Fatalf("%s: expected gameStarted, got %s", cl.id, env.T)
		}
		var gs gamedto.GameStartedPayload
		decode(t, env.M, &gs)
		if gs.Game.Players["red"].ID != "c-a" || gs.Game.Players["black"].ID != "c-b" {
			t.Fatalf("%s: color assignment wrong: %+v", cl.id, gs.Game.Players)
		}
		if gs.Game.CurrentTurn != "red" {
			t.Fatalf("%s: red must move first, got %s", cl.id, gs.Game.CurrentTurn)
		}
	}

	// Red opens with a forward step.
	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvMakeMove, M: mustRaw(t, gamedto.MakeMoveRequest{
		RoomID: roomID, FromRow: 5, FromCol: 2, ToRow: 4, ToCol: 1,
	})})
	for _, cl := range []*client{a, b} {
		env := recv(t, cl)
		if env.T != gamedto.EvMoveApplied {
			t.Fatalf("%s: expected moveApplied, got %s", cl.id, env.T)
		}
		var ma gamedto.MoveAppliedPayload
		decode(t, env.M, &ma)
		if ma.Game.CurrentTurn != "black" || ma.Game.MoveCount != 1 {
			t.Fatalf("%s: state after move: turn=%s count=%d", cl.id, ma.Game.CurrentTurn, ma.Game.MoveCount)
		}
		if ma.LastMove.From != (gamedto.Pos{Row: 5, Col: 2}) || ma.LastMove.To != (gamedto.Pos{Row: 4, Col: 1}) {
			t.Fatalf("%s: lastMove mismatch: %+v", cl.id, ma.LastMove)
		}
	}

	// Red tries to move again out of turn: rejection goes only to the
	// submitter and nothing changes for the opponent.
	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvMakeMove, M: mustRaw(t, gamedto.MakeMoveRequest{
		RoomID: roomID, FromRow: 4, FromCol: 1, ToRow: 3, ToCol: 0,
	})})
	env := recv(t, a)
	if env.T != gamedto.EvMoveRejected {
		t.Fatalf("expected moveRejected, got %s", env.T)
	}
	expectNone(t, b)

	r, ok := h.registry.Get(roomID)
	if !ok {
		t.Fatal("room vanished")
	}
	gs, ok := r.GameSnapshot()
	if !ok || gs.MoveCount != 1 || gs.CurrentTurn != "black" {
		t.Fatalf("out-of-turn move mutated state: %+v", gs)
	}
}

func TestMoveBeforeStartRejected(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	loginAs(t, h, a, "Ada")
	roomID := createRoomFor(t, h, a)

	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvMakeMove, M: mustRaw(t, gamedto.MakeMoveRequest{
		RoomID: roomID, FromRow: 5, FromCol: 2, ToRow: 4, ToCol: 1,
	})})
	env := recv(t, a)
	if env.T != gamedto.EvMoveRejected {
		t.Fatalf("expected moveRejected, got %s", env.T)
	}
}

func TestIllegalMoveRejected(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	b := newTestClient(h, "c-b")
	loginAs(t, h, a, "Ada")
	loginAs(t, h, b, "Bora")
	roomID := createRoomFor(t, h, a)
	h.dispatch(b, &gamedto.Envelope{T: gamedto.EvJoinRoom, M: mustRaw(t, gamedto.JoinRoomRequest{RoomID: roomID})})
	for _, cl := range []*client{a, b} {
		recv(t, cl) // playerJoined
		recv(t, cl) // gameStarted
	}

	// Sideways is never a legal checkers move.
	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvMakeMove, M: mustRaw(t, gamedto.MakeMoveRequest{
		RoomID: roomID, FromRow: 5, FromCol: 2, ToRow: 5, ToCol: 4,
	})})
	env := recv(t, a)
	if env.T != gamedto.EvMoveRejected {
		t.Fatalf("expected moveRejected, got %s", env.T)
	}
	expectNone(t, b)
}

func TestChatBroadcast(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	b := newTestClient(h, "c-b")
	loginAs(t, h, a, "Ada")
	loginAs(t, h, b, "Bora")
	roomID := createRoomFor(t, h, a)
	h.dispatch(b, &gamedto.Envelope{T: gamedto.EvJoinRoom, M: mustRaw(t, gamedto.JoinRoomRequest{RoomID: roomID})})
	for _, cl := range []*client{a, b} {
		recv(t, cl)
		recv(t, cl)
	}

	h.dispatch(b, &gamedto.Envelope{T: gamedto.EvSendMessage, M: mustRaw(t, gamedto.SendMessageRequest{
		RoomID: roomID, Message: "gg",
	})})
	for _, cl := range []*client{a, b} {
		env := recv(t, cl)
		if env.T != gamedto.EvChatPosted {
			t.Fatalf("%s: expected chatPosted, got %s", cl.id, env.T)
		}
		var msg gamedto.ChatMessage
		decode(t, env.M, &msg)
		if msg.PlayerID != "c-b" || msg.PlayerName != "Bora" || msg.Message != "gg" {
			t.Fatalf("%s: chat payload: %+v", cl.id, msg)
		}
	}
}

func TestEmptyChatRejected(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	loginAs(t, h, a, "Ada")
	roomID := createRoomFor(t, h, a)

	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvSendMessage, M: mustRaw(t, gamedto.SendMessageRequest{
		RoomID: roomID, Message: "   ",
	})})
	env := recv(t, a)
	if env.T != gamedto.EvErrorNotice {
		t.Fatalf("expected errorNotice, got %s", env.T)
	}
}

func TestReactionBroadcast(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	loginAs(t, h, a, "Ada")
	roomID := createRoomFor(t, h, a)

	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvSendReaction, M: mustRaw(t, gamedto.SendReactionRequest{
		RoomID: roomID, Reaction: "😂",
	})})
	env := recv(t, a)
	if env.T != gamedto.EvReactionPosted {
		t.Fatalf("expected reactionPosted, got %s", env.T)
	}
	var re gamedto.ReactionInfo
	decode(t, env.M, &re)
	if re.Reaction != "😂" || re.PlayerID != "c-a" {
		t.Fatalf("reaction payload: %+v", re)
	}
	if !re.ExpiresAt.After(re.Timestamp) {
		t.Fatalf("expiry not in the future: %+v", re)
	}
}

func TestListRoomsOnlyJoinable(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	b := newTestClient(h, "c-b")
	c := newTestClient(h, "c-c")
	loginAs(t, h, a, "Ada")
	loginAs(t, h, b, "Bora")
	loginAs(t, h, c, "Ceren")

	openID := createRoomFor(t, h, a)
	fullID := createRoomFor(t, h, b)
	h.dispatch(c, &gamedto.Envelope{T: gamedto.EvJoinRoom, M: mustRaw(t, gamedto.JoinRoomRequest{RoomID: fullID})})
	recv(t, c) // playerJoined
	recv(t, c) // gameStarted
	recv(t, b)
	recv(t, b)

	h.dispatch(a, &gamedto.Envelope{T: gamedto.EvListRooms})
	env := recv(t, a)
	if env.T != gamedto.EvRoomsList {
		t.Fatalf("expected roomsList, got %s", env.T)
	}
	var list gamedto.RoomsListPayload
	decode(t, env.M, &list)
	if len(list.Rooms) != 1 || list.Rooms[0].ID != openID {
		t.Fatalf("expected only %s listed, got %+v", openID, list.Rooms)
	}
}

func TestDisconnectNotifiesAndDeletes(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	b := newTestClient(h, "c-b")
	loginAs(t, h, a, "Ada")
	loginAs(t, h, b, "Bora")
	roomID := createRoomFor(t, h, a)
	h.dispatch(b, &gamedto.Envelope{T: gamedto.EvJoinRoom, M: mustRaw(t, gamedto.JoinRoomRequest{RoomID: roomID})})
	for _, cl := range []*client{a, b} {
		recv(t, cl)
		recv(t, cl)
	}

	h.handleDisconnect(a)
	env := recv(t, b)
	if env.T != gamedto.EvPlayerLeft {
		t.Fatalf("expected playerLeft, got %s", env.T)
	}
	var pl gamedto.PlayerLeftPayload
	decode(t, env.M, &pl)
	if pl.LeftPlayerID != "c-a" || len(pl.Room.Players) != 1 || pl.Room.Started {
		t.Fatalf("playerLeft payload: %+v", pl)
	}

	r, ok := h.registry.Get(roomID)
	if !ok {
		t.Fatal("room deleted while occupied")
	}
	if _, running := r.GameSnapshot(); running {
		t.Fatal("game survived a player leaving")
	}

	h.handleDisconnect(b)
	if _, ok := h.registry.Get(roomID); ok {
		t.Fatal("empty room not deleted")
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	loginAs(t, h, a, "Ada")

	h.handleDisconnect(a)
	h.handleDisconnect(a) // second teardown must be a no-op

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients["c-a"]; ok {
		t.Fatal("client still registered")
	}
	if _, ok := h.sessions["c-a"]; ok {
		t.Fatal("session still bound")
	}
}

func TestCloseDropsClients(t *testing.T) {
	h := newTestHub(t)
	a := newTestClient(h, "c-a")
	b := newTestClient(h, "c-b")
	loginAs(t, h, a, "Ada")
	loginAs(t, h, b, "Bora")

	h.Close()

	h.mu.RLock()
	clients, sessions := len(h.clients), len(h.sessions)
	h.mu.RUnlock()
	if clients != 0 || sessions != 0 {
		t.Fatalf("close left %d clients and %d sessions", clients, sessions)
	}

	// Per-connection teardown arriving after Close must be a no-op.
	h.handleDisconnect(a)
	h.handleDisconnect(b)
}

func TestUnknownEventIgnored(t *testing.T) {
	h := newTestHub(t)
	cl := newTestClient(h, "c1")
	h.dispatch(cl, &gamedto.Envelope{T: "definitelyNotAnEvent"})
	expectNone(t, cl)
}
