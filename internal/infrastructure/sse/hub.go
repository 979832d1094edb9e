package sse

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/powerdesk/backoffice/internal/domain/session"
)

// Hub manages SSE clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.With().Str("component", "sse_hub").Logger(),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[client.ClientID]; ok {
		old.Close()
	}
	h.clients[client.ClientID] = client
}

// Unregister removes client if it is still the registered one for its id.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[client.ClientID]; ok && c == client {
		c.Close()
		delete(h.clients, client.ClientID)
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastToAll(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if !trySend(c, message) {
			h.logger.Warn().Str("client_id", id).Str("event", message.Event).Msg("dropped event for slow client")
		}
	}
}

func (h *Hub) SendToClient(clientID string, message *Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c := h.clients[clientID]
	if c == nil {
		return ErrClientNotFound
	}
	if !trySend(c, message) {
		return ErrChannelFull
	}
	return nil
}

// Redirect tells every open tab to load location as a full navigation.
func (h *Hub) Redirect(ctx context.Context, location string) {
	_ = ctx
	msg, err := NewMessage(EventRedirect, RedirectPayload{Location: location, Full: true})
	if err != nil {
		h.logger.Error().Err(err).Msg("encode redirect")
		return
	}
	h.BroadcastToAll(msg)
}

// PublishSession forwards a session transition to every open tab.
func (h *Hub) PublishSession(ev session.Event) {
	msg, err := NewMessage(EventSession, ev)
	if err != nil {
		h.logger.Error().Err(err).Msg("encode session event")
		return
	}
	h.BroadcastToAll(msg)
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *Client, msg *Message) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
