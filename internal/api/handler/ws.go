package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"chatrelay/backend/internal/chathub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// allow connections from any origin; tighten in production
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates the handshake and upgrades the HTTP
// connection. The bearer token travels as a query parameter because
// browser WebSocket clients cannot set headers on the upgrade request.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	user, err := h.Hub.Authenticate(c.Query("token"))
	if err != nil {
		var authErr *chathub.AuthError
		reason := "authentication failed"
		if errors.As(err, &authErr) {
			reason = authErr.Reason
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "handler").Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, user.ID, conn)
	h.Hub.OnConnect(client)
	client.Run()
}
