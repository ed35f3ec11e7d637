package handlers

import (
	"context"
	"net/http"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/client"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocketHandler upgrades dashboard pages to a live-refresh connection
type WebSocketHandler struct {
	hub    *hub.Hub
	ctx    context.Context
	logger *logger.Logger
}

// NewWebSocketHandler creates a handler whose client pumps live for ctx
func NewWebSocketHandler(ctx context.Context, h *hub.Hub, l *logger.Logger) *WebSocketHandler {
	if l == nil {
		l = logger.NewNop()
	}
	return &WebSocketHandler{
		hub:    h,
		ctx:    ctx,
		logger: l.With(zap.String("component", "websocket")),
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := client.NewClient(uuid.New().String(), conn, h.hub, h.logger)
	h.hub.Register(c)

	// The connection outlives the request; it stops with the server context
	go c.Serve(h.ctx)
}
