package handlers

import (
	"net/http"
	"time"

	"bloodsync/models"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Bearer auth already ran; origins are open like the CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationSocketHandler handles GET /api/notifications/ws. It streams the
// caller's new in-app notifications as JSON frames until the client leaves.
func (h *NotificationHandler) NotificationSocketHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logger := utils.GetLogger().With(zap.String("userID", caller.UserID))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	updates, cancel := h.Hub.Subscribe(caller.UserID)
	logger.Debug("Live inbox connected")

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, updates, done, logger)

	cancel()
	conn.Close()
	logger.Debug("Live inbox disconnected")
}

// readPump discards client frames and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, updates <-chan models.Notification, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case n, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
