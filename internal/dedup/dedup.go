package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an event id is remembered
const DefaultTTL = 10 * time.Minute

// Deduplicator remembers change event ids in Redis so a retried XADD that
// landed twice is applied once
type Deduplicator struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDeduplicator creates a deduplicator scoped to one consumer
func NewDeduplicator(client *redis.Client, scope string, ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Deduplicator{
		client: client,
		prefix: fmt.Sprintf("dashboard:dedup:%s:", scope),
		ttl:    ttl,
	}
}

// FirstSeen returns true the first time an event id is offered
func (d *Deduplicator) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}

	ok, err := d.client.SetNX(ctx, d.prefix+eventID, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup key: %w", err)
	}
	return ok, nil
}
