package models

import "time"

// Roster change kinds
const (
	ChangeInsert  = "insert"
	ChangeDelete  = "delete"
	ChangeRefresh = "refresh"
)

// ChangeEvent announces that the players collection changed. Dashboards
// react by re-fetching; the event itself carries no row data.
type ChangeEvent struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	PlayerID   int64     `json:"player_id,omitempty"`
	PlayerName string    `json:"player_name,omitempty"`
	Origin     string    `json:"origin"` // instance that performed the mutation
	OccurredAt time.Time `json:"occurred_at"`
}
