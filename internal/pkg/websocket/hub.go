package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Subscriber identifies one user inside one school.
type Subscriber struct {
	Schema string
	UserID int64
}

// Event is one push frame sent to a subscriber.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type delivery struct {
	to    Subscriber
	frame []byte
}

// Hub maintains the set of active clients and fans events out to them
type Hub struct {
	// Registered clients organized by subscriber
	clients map[Subscriber]map[*Client]bool

	push       chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[Subscriber]map[*Client]bool),
		push:       make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case d := <-h.push:
			h.deliver(d)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.sub]; !ok {
		h.clients[client.sub] = make(map[*Client]bool)
	}
	h.clients[client.sub][client] = true

	h.logger.Info().
		Str("schema", client.sub.Schema).
		Int64("userID", client.sub.UserID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.sub]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.sub)
	}

	h.logger.Info().
		Str("schema", client.sub.Schema).
		Int64("userID", client.sub.UserID).
		Msg("Client unregistered")
}

func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[d.to] {
		select {
		case client.send <- d.frame:
		default:
			// slow consumer
			delete(h.clients[d.to], client)
			close(client.send)
		}
	}
	if len(h.clients[d.to]) == 0 {
		delete(h.clients, d.to)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub, set := range h.clients {
		for client := range set {
			close(client.send)
		}
		delete(h.clients, sub)
	}
}

// Publish queues ev for every connected client of each user in schema.
// It never blocks; events for a full queue are dropped and logged.
func (h *Hub) Publish(schema string, userIDs []int64, eventType string, data any) {
	frame, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		h.logger.Error().Err(err).Str("type", eventType).Msg("Failed to marshal event")
		return
	}
	for _, id := range userIDs {
		select {
		case h.push <- delivery{to: Subscriber{Schema: schema, UserID: id}, frame: frame}:
		default:
			h.logger.Warn().Str("schema", schema).Int64("userID", id).Msg("Push queue full, event dropped")
		}
	}
}

// attach registers client unless the hub has stopped.
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of open connections for sub.
func (h *Hub) ClientCount(sub Subscriber) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sub])
}
