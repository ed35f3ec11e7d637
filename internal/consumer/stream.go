package consumer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/retry"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second
)

// Backoff between failed reads
var readBackoff = retry.NewPolicy(1, time.Second, 30*time.Second)

// Refresher re-fetches the players collection
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Broadcaster pushes a change to locally connected dashboards
type Broadcaster interface {
	Broadcast(ev models.ChangeEvent)
}

// Deduper filters out events that were already applied
type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

// Config names the stream and this instance's place in the consumer group
type Config struct {
	Stream        string
	ConsumerGroup string
	ConsumerID    string
	// Origin of this instance; its own events are skipped
	Origin string
	// Dedup is optional
	Dedup Deduper
}

// StreamConsumer applies roster changes made by other dashboard instances
type StreamConsumer struct {
	redis       *redis.Client
	cfg         Config
	refresher   Refresher
	broadcaster Broadcaster
	logger      *logger.Logger
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(redisClient *redis.Client, cfg Config, r Refresher, b Broadcaster, l *logger.Logger) *StreamConsumer {
	if l == nil {
		l = logger.NewNop()
	}
	return &StreamConsumer{
		redis:       redisClient,
		cfg:         cfg,
		refresher:   r,
		broadcaster: b,
		logger:      l.With(zap.String("component", "consumer"), zap.String("stream", cfg.Stream)),
	}
}

// Start consumes until ctx is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	if err := sc.EnsureGroup(ctx); err != nil {
		return err
	}
	sc.logger.Info("stream consumer started")

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := sc.Poll(ctx, blockDuration); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			delay := readBackoff.Delay(failures)
			sc.logger.Warn("stream read error", zap.Error(err), zap.Int("failures", failures), zap.Duration("retry_in", delay))
			if retry.Sleep(ctx, delay) != nil {
				return nil
			}
			continue
		}
		failures = 0
	}
}

// EnsureGroup creates the consumer group at the stream tail. Dashboards
// only care about changes made after they start.
func (sc *StreamConsumer) EnsureGroup(ctx context.Context) error {
	err := sc.redis.XGroupCreateMkStream(ctx, sc.cfg.Stream, sc.cfg.ConsumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Poll reads one batch and handles it, returning the number of messages.
// A negative block returns immediately when nothing is pending.
func (sc *StreamConsumer) Poll(ctx context.Context, block time.Duration) (int, error) {
	streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    sc.cfg.ConsumerGroup,
		Consumer: sc.cfg.ConsumerID,
		Streams:  []string{sc.cfg.Stream, ">"},
		Count:    batchSize,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			sc.processMessage(ctx, message)
			n++
		}
	}
	return n, nil
}

func (sc *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	defer sc.ackMessage(ctx, msg.ID)

	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		sc.logger.Warn("invalid message format", zap.String("message_id", msg.ID))
		return
	}

	var ev models.ChangeEvent
	if err := json.Unmarshal([]byte(dataStr), &ev); err != nil {
		sc.logger.Warn("failed to parse change event", zap.String("message_id", msg.ID), zap.Error(err))
		return
	}

	metrics.ChangeEventsConsumedTotal.Inc()

	// Our own mutations already refreshed and notified locally
	if ev.Origin == sc.cfg.Origin {
		return
	}

	if sc.cfg.Dedup != nil {
		first, err := sc.cfg.Dedup.FirstSeen(ctx, ev.EventID)
		if err != nil {
			sc.logger.Warn("dedup check failed", zap.String("event_id", ev.EventID), zap.Error(err))
		} else if !first {
			sc.logger.Debug("skipping duplicate change event", zap.String("event_id", ev.EventID))
			return
		}
	}

	if err := sc.refresher.Refresh(ctx); err != nil {
		// Refresh logs the failure and keeps the old snapshot; browsers
		// are still told so they can retry on their own fetch.
		sc.logger.Debug("refresh after remote change failed", zap.Error(err))
	}
	sc.broadcaster.Broadcast(ev)
}

func (sc *StreamConsumer) ackMessage(ctx context.Context, messageID string) {
	if err := sc.redis.XAck(ctx, sc.cfg.Stream, sc.cfg.ConsumerGroup, messageID).Err(); err != nil {
		sc.logger.Warn("failed to ack message", zap.String("message_id", messageID), zap.Error(err))
	}
}
