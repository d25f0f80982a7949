package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emailSenderFor(t *testing.T, srv *httptest.Server) *EmailSender {
	t.Helper()
	s := NewEmailSender("re_test", "BloodSync <noreply@bloodsync.app>")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.client.BaseURL = base
	return s
}

func TestEmailSender_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"em_123"}`))
	}))
	defer srv.Close()

	res, err := emailSenderFor(t, srv).Send(context.Background(),
		Recipient{Name: "Meera", Email: "meera@example.com"},
		Message{Title: "Offer accepted", Body: "Thank you"})
	require.NoError(t, err)
	assert.Equal(t, "em_123", res.ID)
	assert.Equal(t, []any{"meera@example.com"}, got["to"])
	assert.Equal(t, "Offer accepted", got["subject"])
}

func TestEmailSender_HonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := emailSenderFor(t, srv).Send(ctx, Recipient{Email: "meera@example.com"}, Message{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEmailSender_NoAddress(t *testing.T) {
	s := NewEmailSender("re_test", "from@example.com")
	_, err := s.Send(context.Background(), Recipient{}, Message{})
	assert.ErrorIs(t, err, errNoAddress)
}
