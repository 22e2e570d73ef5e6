package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wowcafe/cafe-app/feed"
	"github.com/wowcafe/cafe-app/middlewares"
	"github.com/wowcafe/cafe-app/utils"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedHandler upgrades GET /ws/feed to a websocket subscribed to the
// operational feed. Auth runs in WebSocketAuthMiddleware.
func FeedHandler(c *gin.Context) {
	role, ok := middlewares.CurrentRole(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("feed upgrade failed: %v", err)
		return
	}

	feed.RegisterClient(conn, string(role))

	// Reader loop only detects disconnects; the feed is write-only.
	go func() {
		defer feed.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
