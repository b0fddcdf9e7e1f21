package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tictactoe/agent"
	"tictactoe/game"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// statsPayload is pushed to websocket subscribers after every learn.
type statsPayload struct {
	agent.Stats
	LastOutcome string `json:"last_outcome,omitempty"`
	UpdatedAtMs int64  `json:"updated_at_ms"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans training updates out to websocket subscribers. Publishing never
// blocks: with nobody listening, or a client lagging, updates are dropped.
type Hub struct {
	mu        sync.Mutex
	clients   map[*client]struct{}
	broadcast chan statsPayload
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan statsPayload, 64),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				c.sendJSON(wsMessage{Type: "stats", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

// PublishStats queues a stats push for subscribers.
func (h *Hub) PublishStats(stats agent.Stats, outcome game.Outcome) {
	payload := statsPayload{
		Stats:       stats,
		LastOutcome: outcome.String(),
		UpdatedAtMs: time.Now().UnixMilli(),
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (c *client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
