// Package gateway reaches the remote players collection. It performs no
// storage work of its own: every call is a single request/response round
// trip to the configured backend.
package gateway

import (
	"context"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
)

// PlayerStore defines the operations on the players collection
type PlayerStore interface {
	// ListPlayers returns every row ordered by id ascending
	ListPlayers(ctx context.Context) ([]models.PlayerRecord, error)
	// InsertPlayer stores one record; the backend assigns its id
	InsertPlayer(ctx context.Context, p models.NewPlayer) error
	// DeletePlayer removes the row with the given id. A missing id is not
	// reported as an error.
	DeletePlayer(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// Error is a failure reported by the backend. Message carries the
// backend's own failure text and is safe to show to the user.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}
