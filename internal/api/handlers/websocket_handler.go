// internal/api/handlers/websocket_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"military-logistics-api-server/internal/apperror"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Maximum wait for a client ping before the connection is dropped.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub     *socket.Hub
	Tokens  *auth.TokenManager
	Revoker auth.Revoker
}

// ServeWs authenticates with ?token= since browsers cannot set headers on the
// upgrade request, then holds the connection until the client goes away.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		respondError(c, apperror.Unauthenticated("Token is required"))
		return
	}
	claims, err := h.Tokens.Parse(tokenString)
	if err != nil {
		respondError(c, apperror.Unauthenticated("Invalid or expired token"))
		return
	}
	revoked, err := h.Revoker.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		respondError(c, apperror.Dependency("Failed to check token", err))
		return
	}
	if revoked {
		respondError(c, apperror.Unauthenticated("Token has been revoked"))
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("Failed to upgrade connection", "user_id", userID, "error", err)
		return
	}

	h.Hub.Register(userID, conn)
	defer func() {
		h.Hub.Unregister(userID, conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	// gorilla answers pings with a pong; each ping extends the deadline.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Unexpected close error", "user_id", userID, "error", err)
			}
			break
		}
	}
}
