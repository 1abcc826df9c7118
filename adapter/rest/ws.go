package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

const actWSWriteWait = 10 * time.Second

var actWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type actWSOutbound struct {
	Type     string             `json:"type"`
	Envelope *envelope.Envelope `json:"envelope,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// Chat over a websocket: every inbound message is a POST /v1/act body, answered by an
// "envelope" or "error" message. The session_id query parameter is used when a message
// has none.
// (GET /v1/act/ws?session_id=...)
func (a *Adapter) ActWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))

	conn, err := actWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Sugar().With("error", err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(a.wsPongWait))
	})

	writeCh := make(chan actWSOutbound, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		a.writeActWS(ctx, conn, writeCh)
		// unblock the reader once nothing can be written anymore
		cancel()
		conn.Close()
	}()
	defer func() {
		cancel()
		<-writerDone
	}()

	for {
		// pongs are only handled while reading, so a long act must not eat into the wait
		if err := conn.SetReadDeadline(time.Now().Add(a.wsPongWait)); err != nil {
			return
		}

		var req actRequest
		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				a.logger.Sugar().With("error", err).Debug("websocket read failed")
			}
			return
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}
		if err := req.validate(); err != nil {
			pushActWS(ctx, writeCh, actWSOutbound{Type: "error", Message: err.Error()})
			continue
		}

		actCtx, actCancel := context.WithTimeout(ctx, a.actTimeout)
		env, err := a.act(actCtx, req)
		actCancel()
		if err != nil {
			pushActWS(ctx, writeCh, actWSOutbound{Type: "error", Message: err.Error()})
			continue
		}
		pushActWS(ctx, writeCh, actWSOutbound{Type: "envelope", Envelope: env})
	}
}

func (a *Adapter) writeActWS(ctx context.Context, conn *websocket.Conn, writeCh <-chan actWSOutbound) {
	ticker := time.NewTicker(a.wsPongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-writeCh:
			if err := conn.SetWriteDeadline(time.Now().Add(actWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				a.logger.Sugar().With("error", err).Debug("websocket write failed")
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(actWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func pushActWS(ctx context.Context, writeCh chan<- actWSOutbound, msg actWSOutbound) {
	select {
	case <-ctx.Done():
	case writeCh <- msg:
	}
}
