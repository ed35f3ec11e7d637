package hub

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/client"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub maintains the set of open dashboards and pushes roster changes to them
type Hub struct {
	// Registered clients
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	// Inbound change events from the controller and the stream consumer
	broadcast chan models.ChangeEvent

	register   chan *client.Client
	unregister chan *client.Client
	done       chan struct{}

	logger *logger.Logger
}

// NewHub creates a new Hub instance
func NewHub(l *logger.Logger) *Hub {
	if l == nil {
		l = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[*client.Client]bool),
		broadcast:  make(chan models.ChangeEvent, 256),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		done:       make(chan struct{}),
		logger:     l.With(zap.String("component", "hub")),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case ev := <-h.broadcast:
			h.broadcastChange(ev)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a change for every connected client
func (h *Hub) Broadcast(ev models.ChangeEvent) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("broadcast buffer full, dropping change", zap.String("event_id", ev.EventID))
	}
}

// RosterChanged lets the hub act as a dashboard notifier
func (h *Hub) RosterChanged(ctx context.Context, ev models.ChangeEvent) {
	h.Broadcast(ev)
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	metrics.WebsocketClients.Set(float64(len(h.clients)))

	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.Int("total", len(h.clients)))
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
		metrics.WebsocketClients.Set(float64(len(h.clients)))
		h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.Int("total", len(h.clients)))
	}
}

func (h *Hub) broadcastChange(ev models.ChangeEvent) {
	h.clientsMu.RLock()
	clients := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeRosterChanged,
		Payload:   ev,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if c.TrySend(message) {
			sent++
			continue
		}
		select {
		case <-c.Done():
			// Already dropped; its read loop will unregister it
			continue
		default:
		}
		// Too slow to keep up; the page reconnects and re-fetches
		h.logger.Warn("client buffer full, disconnecting", zap.String("client_id", c.ID))
		c.CloseWithCode(websocket.CloseTryAgainLater)
		go h.Unregister(c)
	}

	h.logger.Debug("roster change pushed", zap.String("event_id", ev.EventID), zap.Int("clients", sent))
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes all client connections
func (h *Hub) shutdown() {
	close(h.done)

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info("shutting down hub", zap.Int("active_clients", len(h.clients)))

	for c := range h.clients {
		c.CloseWithCode(websocket.CloseGoingAway)
		delete(h.clients, c)
	}
	metrics.WebsocketClients.Set(0)
}
