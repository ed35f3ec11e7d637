package client_test

import (
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/client"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
)

// MockHub implements the Hub interface for testing
type MockHub struct {
	unregisteredClients []*client.Client
}

func (m *MockHub) Unregister(c *client.Client) {
	m.unregisteredClients = append(m.unregisteredClients, c)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	c := client.NewClient("c1", nil, &MockHub{}, nil)

	msg := models.ServerMessage{Type: models.MessageTypeRosterChanged, Timestamp: time.Now()}
	for i := 0; i < client.SendBufferSize; i++ {
		if !c.TrySend(msg) {
			t.Fatalf("send %d rejected before buffer was full", i)
		}
	}

	if c.TrySend(msg) {
		t.Error("expected TrySend to fail on a full buffer")
	}
}

func TestClient_HandleMessage(t *testing.T) {
	tests := []struct {
		name     string
		msgType  string
		expected string
	}{
		{"heartbeat answered with stats", models.MessageTypeHeartbeat, models.MessageTypeHeartbeat},
		{"unknown type answered with error", "subscribe", models.MessageTypeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := client.NewClient("c1", nil, &MockHub{}, nil)
			c.HandleMessage(models.ClientMessage{Type: tt.msgType})

			select {
			case got := <-c.Messages():
				if got.Type != tt.expected {
					t.Errorf("expected %s, got %s", tt.expected, got.Type)
				}
				if tt.expected == models.MessageTypeHeartbeat {
					stats, ok := got.Payload.(models.ConnectionStats)
					if !ok || stats.ClientID != "c1" {
						t.Errorf("unexpected heartbeat payload: %#v", got.Payload)
					}
				}
			default:
				t.Fatal("no reply queued")
			}
		})
	}
}

func TestClient_GetStats(t *testing.T) {
	c := client.NewClient("abc", nil, &MockHub{}, nil)
	stats := c.GetStats()

	if stats.ClientID != "abc" {
		t.Errorf("expected client id abc, got %s", stats.ClientID)
	}
	if stats.BufferSize != client.SendBufferSize {
		t.Errorf("expected buffer size %d, got %d", client.SendBufferSize, stats.BufferSize)
	}
	if stats.ConnectedAt.IsZero() {
		t.Error("connected_at should be set")
	}
}

func TestClient_ClosedClientRefusesSends(t *testing.T) {
	c := client.NewClient("c1", nil, &MockHub{}, nil)
	c.Close()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done to be closed")
	}

	if c.TrySend(models.ServerMessage{Type: models.MessageTypeRosterChanged}) {
		t.Error("expected TrySend to refuse after Close")
	}

	// A heartbeat read just before the socket went away must not panic
	c.HandleMessage(models.ClientMessage{Type: models.MessageTypeHeartbeat})
	if n := len(c.Messages()); n != 0 {
		t.Errorf("expected no queued replies, got %d", n)
	}
}

func TestClient_CloseConcurrentWithSends(t *testing.T) {
	c := client.NewClient("c1", nil, &MockHub{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.HandleMessage(models.ClientMessage{Type: models.MessageTypeHeartbeat})
			}
		}()
	}
	c.Close()
	wg.Wait()
}
