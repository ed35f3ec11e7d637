package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/gorilla/websocket"
)

func TestWebSocket_ReceivesRosterChanged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.NewHub(nil)
	go h.Run(ctx)

	ws := handlers.NewWebSocketHandler(ctx, h, nil)
	server := httptest.NewServer(http.HandlerFunc(ws.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for h.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 connected client, got %d", h.GetClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.RosterChanged(ctx, models.ChangeEvent{EventID: "ev-1", Kind: models.ChangeInsert, PlayerName: "Kim"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string             `json:"type"`
		Payload models.ChangeEvent `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	if msg.Type != models.MessageTypeRosterChanged {
		t.Errorf("expected %s, got %s", models.MessageTypeRosterChanged, msg.Type)
	}
	if msg.Payload.EventID != "ev-1" || msg.Payload.PlayerName != "Kim" {
		t.Errorf("unexpected payload: %+v", msg.Payload)
	}

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for h.GetClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 0 clients after disconnect, got %d", h.GetClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_HubShutdownSendsCloseFrame(t *testing.T) {
	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	h := hub.NewHub(nil)
	go h.Run(hubCtx)

	ws := handlers.NewWebSocketHandler(serverCtx, h, nil)
	server := httptest.NewServer(http.HandlerFunc(ws.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for h.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 connected client, got %d", h.GetClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Heartbeats keep flowing while the hub drops the client
	if err := conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeHeartbeat}); err != nil {
		t.Fatalf("failed to send heartbeat: %v", err)
	}
	stopHub()
	conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeHeartbeat})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg models.ServerMessage
		err := conn.ReadJSON(&msg)
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Fatalf("expected a going-away close frame, got %v", err)
		}
		break
	}
}
