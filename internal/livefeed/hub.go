// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package livefeed

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/auditus/internal/events"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metrics"
)

// Message types sent over the feed.
const (
	MessageTypeTrack = "track"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// Message is one feed frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Hub maintains the set of connected clients and fans broadcasts out
// to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext drives the hub until the context is canceled, then
// closes all clients and returns ctx.Err(). Designed to run under a
// supervisor.
//
// Selection is priority ordered so behavior stays predictable when
// multiple channels are ready: shutdown first, client lifecycle second,
// broadcasts last.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.TrackFeedConnection(true)
	logging.Info().Int("total_clients", total).Msg("Feed client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	removed := false
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		removed = true
	}
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		metrics.TrackFeedConnection(false)
		logging.Info().Int("total_clients", total).Msg("Feed client disconnected")
	}
}

// broadcastToClients delivers a message to every client in id order.
// Clients whose send channel is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.RecordFeedMessage()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackFeedConnection(false)
		metrics.RecordFeedMessageDropped()
		logging.Warn().Msg("Dropped slow feed client")
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackFeedConnection(false)
	}
	h.mu.Unlock()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "livefeed-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("Feed hub stopped")
}

// BroadcastTrackEvent queues a track event for all connected clients.
// Non-blocking: if the broadcast channel is full the event is dropped
// with a warning, never stalling the bus consumer.
func (h *Hub) BroadcastTrackEvent(ev *events.TrackEvent) {
	message := Message{
		Type: MessageTypeTrack,
		Data: ev,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.RecordFeedMessageDropped()
		logging.Warn().
			Str("event_id", ev.EventID).
			Msg("Broadcast channel full, dropping track event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
