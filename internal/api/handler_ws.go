package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notifyhub/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The realtime channel carries only notifications the client already
	// owns; cross-origin pages may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Serve handles GET /ws: upgrades the connection and hands it to the hub.
// The client joins its user group by sending {"user_id": "..."}.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	realtime.NewClient(h.hub, conn)
}
