package http

import (
	"context"
	"errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/groupcast-server/internal/core"
	"github.com/vovakirdan/groupcast-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the gateway. The
// transport assigns each socket an opaque connection identifier; the
// client's group comes from the ?group= query parameter.
type WSHandler struct {
	gateway   *core.Gateway
	registry  *Registry
	log       *zerolog.Logger
	readLimit int64
}

// statusAck is written back to the client when an event is rejected.
type statusAck struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(gateway *core.Gateway, registry *Registry, logger *zerolog.Logger, readLimit int64) *WSHandler {
	return &WSHandler{gateway: gateway, registry: registry, log: logger, readLimit: readLimit}
}

// Handle is the gin entry point for GET /ws.
func (h *WSHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	sock, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer sock.Close(websocket.StatusInternalError, "internal error")

	if h.readLimit > 0 {
		sock.SetReadLimit(h.readLimit)
	}

	connID := utils.NewConnectionID()
	group := c.Query("group")

	h.registry.add(connID, sock)
	defer h.registry.drop(connID)

	if status := h.gateway.Connect(ctx, connID, group); status != core.StatusAccepted {
		_ = wsjson.Write(ctx, sock, statusAck{Status: int(status), Error: status.Text()})
		sock.Close(websocket.StatusInternalError, "join failed")
		return
	}

	defer func() {
		// The request context is gone once the socket drops; clean up the
		// membership row on a fresh context.
		dctx := context.WithoutCancel(ctx)
		if status := h.gateway.Disconnect(dctx, connID); status != core.StatusAccepted {
			h.log.Warn().Str("connection", connID).Int("status", int(status)).Msg("disconnect cleanup failed")
		}
	}()

	h.readLoop(ctx, sock, connID)
	sock.Close(websocket.StatusNormalClosure, "closing")
}

func (h *WSHandler) readLoop(ctx context.Context, sock *websocket.Conn, connID string) {
	for {
		_, data, err := sock.Read(ctx)
		if err != nil {
			if !isExpectedClose(err) {
				h.log.Warn().Err(err).Str("connection", connID).Msg("ws read error")
			}
			return
		}

		status := h.gateway.Message(ctx, connID, data)
		if status == core.StatusAccepted {
			continue
		}
		if err := wsjson.Write(ctx, sock, statusAck{Status: int(status), Error: status.Text()}); err != nil {
			h.log.Warn().Err(err).Str("connection", connID).Msg("ws ack write error")
			return
		}
	}
}

func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
