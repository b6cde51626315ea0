package hub

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kapu/checkers-arena-go/internal/obslog"
	"github.com/kapu/checkers-arena-go/pkg/gamedto"
)

const (
	sendBuffer   = 64
	pingInterval = 30 * time.Second
)

// client is one live websocket connection. Outbound frames go through the
// buffered send channel so a slow reader can never stall the event loop; a
// full buffer drops the frame for that client only.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// ServeWS upgrades the request and runs the connection until it drops. The
// reader feeds the hub's single event loop; the writer drains the send
// channel and keeps the connection alive with pings.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}

	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(cl)
	obslog.L().Info("conn_open", zap.String("conn", cl.id))

	go cl.writeLoop(r.Context())

	for {
		var env gamedto.Envelope
		if err := wsjson.Read(r.Context(), conn, &env); err != nil {
			break
		}
		h.events <- inbound{c: cl, env: &env}
	}

	h.events <- inbound{c: cl, disconnect: true}
}

func (cl *client) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = cl.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			if !ok {
				return
			}
			if err := cl.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := cl.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
