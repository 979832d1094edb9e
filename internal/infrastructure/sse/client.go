package sse

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClientNotFound = errors.New("sse client not found")
	ErrChannelFull    = errors.New("sse client channel full")
)

// Event names sent to dashboard tabs.
const (
	EventSnapshot = "snapshot"
	EventSession  = "session"
	EventRedirect = "redirect"
)

// Client represents an open event stream of one dashboard tab.
type Client struct {
	ClientID    string
	ConnectedAt time.Time
	MessageChan chan *Message
}

// NewClient creates a client; an empty id gets a generated one.
func NewClient(clientID string) *Client {
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return &Client{
		ClientID:    clientID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *Message, 16),
	}
}

// Close closes the client's message channel
func (c *Client) Close() {
	close(c.MessageChan)
}

// Message is one server-sent event.
type Message struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with a JSON payload.
func NewMessage(event string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// RedirectPayload instructs the tab to perform a full page load.
type RedirectPayload struct {
	Location string `json:"location"`
	Full     bool   `json:"full"`
}
