package services

import (
	"sync"
	"time"
)

// NotificationEvent is the payload pushed to a connected client when a
// notification addressed to them is delivered.
type NotificationEvent struct {
	ID           uint      `json:"id"`
	RecipientID  uint      `json:"recipient_id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	RedirectPath string    `json:"redirect_path"`
	CreatedAt    time.Time `json:"created_at"`
}

type hubClient struct {
	userID uint
	ch     chan NotificationEvent
}

// NotificationHub manages live client connections and per-recipient event
// broadcasting over SSE.
type NotificationHub struct {
	clients map[string]*hubClient
	mu      sync.RWMutex
}

// NewNotificationHub creates a new hub instance
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[string]*hubClient),
	}
}

// Subscribe registers a client connection for userID and returns a channel
// for receiving that user's events.
func (h *NotificationHub) Subscribe(clientID string, userID uint) <-chan NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Buffered so a slow consumer never blocks delivery
	ch := make(chan NotificationEvent, 100)
	h.clients[clientID] = &hubClient{userID: userID, ch: ch}
	return ch
}

// Unsubscribe removes a client from the hub
func (h *NotificationHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.ch)
		delete(h.clients, clientID)
	}
}

// Publish sends an event to every connection belonging to its recipient.
func (h *NotificationHub) Publish(event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.userID != event.RecipientID {
			continue
		}
		// Non-blocking send - drop event if client buffer is full
		select {
		case c.ch <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (h *NotificationHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Global hub instance
var globalHub *NotificationHub
var hubOnce sync.Once

// GetNotificationHub returns the global hub singleton
func GetNotificationHub() *NotificationHub {
	hubOnce.Do(func() {
		globalHub = NewNotificationHub()
	})
	return globalHub
}
