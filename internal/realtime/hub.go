package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Client represents a single subscriber connection.
// The network conn itself is managed by the websocket handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub keeps the active subscriptions and fans row changes out to them.
type Hub struct {
	mu   sync.RWMutex
	subs map[Client]Filter
}

var hubInstance *Hub
var once sync.Once

// GetHub returns a singleton hub instance.
func GetHub() *Hub {
	once.Do(func() {
		hubInstance = NewHub()
	})
	return hubInstance
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[Client]Filter)}
}

// Subscribe registers client for the changes matching f, replacing any
// previous filter of the same client.
func (h *Hub) Subscribe(client Client, f Filter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[client] = f
}

// Unsubscribe removes client. It is safe to call more than once.
func (h *Hub) Unsubscribe(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, client)
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers c to every matching subscriber. Subscribers that cannot
// keep up are dropped and closed.
func (h *Hub) Publish(c Change) {
	payload, err := json.Marshal(c)
	if err != nil {
		log.Error().Err(err).Str("table", c.Table).Msg("realtime: marshal change")
		return
	}

	var slow []Client
	h.mu.RLock()
	for client, f := range h.subs {
		if !f.Matches(c) {
			continue
		}
		if ok := client.Send(payload); !ok {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Warn().Str("table", c.Table).Msg("realtime: dropping subscriber that cannot keep up")
		h.Unsubscribe(client)
		client.Close()
	}
}
