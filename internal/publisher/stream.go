package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Approximate cap on retained change events
	streamMaxLen = 1000

	publishTimeout = 2 * time.Second
)

// StreamPublisher publishes roster changes to a Redis stream so other
// dashboard instances can re-fetch
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *logger.Logger
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, stream string, l *logger.Logger) *StreamPublisher {
	if l == nil {
		l = logger.NewNop()
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		logger: l.With(zap.String("component", "publisher")),
	}
}

// Publish appends one change event to the stream
func (p *StreamPublisher) Publish(ctx context.Context, ev models.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling change event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":   string(data),
			"kind":   ev.Kind,
			"origin": ev.Origin,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", p.stream, err)
	}

	metrics.ChangeEventsPublishedTotal.Inc()
	return nil
}

// RosterChanged publishes in the background; a lost event only delays
// other dashboards until their next refresh
func (p *StreamPublisher) RosterChanged(ctx context.Context, ev models.ChangeEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := p.Publish(ctx, ev); err != nil {
			p.logger.Error("failed to publish change event", err, zap.String("event_id", ev.EventID))
		}
	}()
}
