package notification

import (
	"sync"

	"bloodsync/models"
)

const subscriberBuffer = 16

type subscriber struct {
	ch chan models.Notification
}

// Hub fans in-app notifications out to live websocket sessions, keyed by recipient.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{users: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a live session for userID. The returned cancel func
// closes the channel and must be called once the session ends.
func (h *Hub) Subscribe(userID string) (<-chan models.Notification, func()) {
	sub := &subscriber{ch: make(chan models.Notification, subscriberBuffer)}

	h.mu.Lock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*subscriber]struct{})
	}
	h.users[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.users[userID]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.users, userID)
				}
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers n to every session of its recipient. Slow sessions drop
// the message rather than block the caller. It returns the number reached.
func (h *Hub) Publish(n models.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	reached := 0
	for sub := range h.users[n.UserID] {
		select {
		case sub.ch <- n:
			reached++
		default:
		}
	}
	return reached
}

// Sessions returns the number of live sessions for userID.
func (h *Hub) Sessions(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
