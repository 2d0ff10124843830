package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harunnryd/strum/pkg/assistant"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler serves chat turns over a websocket. Each inbound message is one
// ChatRequest; the events of the resulting turn are written back as JSON
// frames, finish event last, then the next request is read.
type WSHandler struct {
	orch     *assistant.Orchestrator
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(orch *assistant.Orchestrator, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		orch: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.With(slog.String("component", "chat_ws")),
	}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket closed", slog.String("error", err.Error()))
			}
			return
		}
		turnCtx, turnCancel := context.WithCancel(ctx)
		for ev := range h.orch.Turn(turnCtx, req.Messages) {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				turnCancel()
				return
			}
		}
		turnCancel()
	}
}
