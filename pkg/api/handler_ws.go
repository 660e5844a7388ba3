package api

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// wsHandler upgrades HTTP connections to WebSocket and delegates to ConnectionManager.
func (s *Server) wsHandler(c *gin.Context) {
	if s.connManager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "WebSocket not available"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// Origin validation is deferred — left open here, same as origin
		// policy teacher packs in this corpus start with before a gateway
		// (oauth2-proxy, ingress allowlist) is added in front.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}

	// Register connection with the ConnectionManager. HandleConnection
	// blocks until the WebSocket closes.
	s.connManager.HandleConnection(c.Request.Context(), conn)
}
