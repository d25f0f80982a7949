package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bloodsync/middleware"
	"bloodsync/models"
	"bloodsync/services/notification"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketServer serves the live inbox; ?user= stands in for a verified token.
func socketServer(t *testing.T) (*httptest.Server, *notification.Hub) {
	t.Helper()
	hub := notification.NewHub()
	inbox := NewNotificationHandler(nil, hub)

	r := gin.New()
	r.GET("/api/notifications/ws", func(c *gin.Context) {
		if id := c.Query("user"); id != "" {
			middleware.SetCaller(c, models.Caller{UserID: id, Role: models.RoleDonor})
		}
		c.Next()
	}, inbox.NotificationSocketHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dialInbox(t *testing.T, srv *httptest.Server, userID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"
	if userID != "" {
		url += "?user=" + userID
	}
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestNotificationSocket_StreamsOwnNotifications(t *testing.T) {
	srv, hub := socketServer(t)

	conn, _, err := dialInbox(t, srv, "u1")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Sessions("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, hub.Publish(models.Notification{ID: "n0", UserID: "u2", Message: "not yours"}))
	assert.Equal(t, 1, hub.Publish(models.Notification{
		ID:        "n1",
		UserID:    "u1",
		Message:   "Your offer was accepted",
		Type:      models.NotificationOfferAccepted,
		RelatedID: "o1",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, models.NotificationOfferAccepted, got.Type)
	assert.Equal(t, "o1", got.RelatedID)
	assert.False(t, got.IsRead)
}

func TestNotificationSocket_UnsubscribesOnClose(t *testing.T) {
	srv, hub := socketServer(t)

	conn, _, err := dialInbox(t, srv, "u1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Sessions("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.Sessions("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationSocket_RequiresCaller(t *testing.T) {
	srv, _ := socketServer(t)

	conn, resp, err := dialInbox(t, srv, "")
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
