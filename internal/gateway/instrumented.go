package gateway

import (
	"context"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"go.uber.org/zap"
)

// Instrumented wraps a PlayerStore with latency metrics and debug logging
type Instrumented struct {
	next   PlayerStore
	logger *logger.Logger
}

// NewInstrumented decorates next
func NewInstrumented(next PlayerStore, l *logger.Logger) *Instrumented {
	return &Instrumented{next: next, logger: l.With(zap.String("component", "gateway"))}
}

func (s *Instrumented) observe(op string, start time.Time, err error, fields ...zap.Field) {
	elapsed := time.Since(start)
	metrics.GatewayLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	metrics.GatewayRequestsTotal.WithLabelValues(op, metrics.Outcome(err)).Inc()

	fields = append(fields, zap.String("operation", op), zap.Duration("elapsed", elapsed))
	if err != nil {
		s.logger.Debug("gateway call failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Debug("gateway call", fields...)
}

// ListPlayers implements PlayerStore
func (s *Instrumented) ListPlayers(ctx context.Context) ([]models.PlayerRecord, error) {
	start := time.Now()
	players, err := s.next.ListPlayers(ctx)
	s.observe("list", start, err, zap.Int("rows", len(players)))
	return players, err
}

// InsertPlayer implements PlayerStore
func (s *Instrumented) InsertPlayer(ctx context.Context, p models.NewPlayer) error {
	start := time.Now()
	err := s.next.InsertPlayer(ctx, p)
	s.observe("insert", start, err, zap.String("name", p.Name))
	return err
}

// DeletePlayer implements PlayerStore
func (s *Instrumented) DeletePlayer(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.next.DeletePlayer(ctx, id)
	s.observe("delete", start, err, zap.Int64("id", id))
	return err
}

// Ping implements PlayerStore
func (s *Instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe("ping", start, err)
	return err
}

// Close implements PlayerStore
func (s *Instrumented) Close() error {
	return s.next.Close()
}
