package services

import (
	"sync"

	"battle-manager/models"
)

// ChatHub fans persisted chat messages out to connected websocket readers.
// Subscribers get a buffered channel; a subscriber that falls behind has the
// message dropped rather than blocking the publisher.
type ChatHub struct {
	mu          sync.Mutex
	subscribers map[chan models.ChatMessage]struct{}
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		subscribers: make(map[chan models.ChatMessage]struct{}),
	}
}

func (h *ChatHub) Subscribe() chan models.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan models.ChatMessage, 32)
	h.subscribers[ch] = struct{}{}
	return ch
}

func (h *ChatHub) Unsubscribe(ch chan models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// Publish delivers msg to every subscriber. Channel filtering happens on the
// reader side since each connection knows which channel it is watching.
func (h *ChatHub) Publish(msg models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default: // slow reader, drop
		}
	}
}
