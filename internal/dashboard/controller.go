// Package dashboard holds the dashboard's owned state: the latest players
// snapshot, the stats derived from it, and the calls that change them.
// Form input belongs to the request that posted it; Submit only decides
// what the form should show next.
package dashboard

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/gateway"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/sabermetrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is told about successful mutations so other dashboards can
// re-fetch. Implementations must not block.
type Notifier interface {
	RosterChanged(ctx context.Context, ev models.ChangeEvent)
}

// LeaderCard is one headline leader shown above the table
type LeaderCard struct {
	Label  string                    `json:"label"`
	Metric sabermetrics.Metric       `json:"metric"`
	Player models.DerivedPlayerStats `json:"player"`
}

// View is everything needed to render one pass of the dashboard
type View struct {
	Loaded  bool                        `json:"loaded"`
	Metric  sabermetrics.Metric         `json:"sort"`
	Players []models.DerivedPlayerStats `json:"players"`
	Team    models.TeamAverages         `json:"team"`
	Leaders []LeaderCard                `json:"leaders"`
}

var leaderCards = []struct {
	label  string
	metric sabermetrics.Metric
}{
	{"WAR", sabermetrics.MetricWARProxy},
	{"OPS", sabermetrics.MetricOPS},
	{"OBP", sabermetrics.MetricOBP},
	{"SLG", sabermetrics.MetricSLG},
	{"BB", sabermetrics.MetricWalks},
	{"HR", sabermetrics.MetricHomerun},
}

// Options configures a Controller
type Options struct {
	Store    gateway.PlayerStore
	Logger   *logger.Logger
	Notifier Notifier // optional
	Origin   string   // instance id stamped on change events
}

// Controller owns the dashboard state. It is safe for concurrent use;
// gateway calls are made without holding the state lock.
type Controller struct {
	store    gateway.PlayerStore
	logger   *logger.Logger
	notifier Notifier
	origin   string

	mu       sync.RWMutex
	snapshot []models.PlayerRecord
	derived  []models.DerivedPlayerStats
	team     models.TeamAverages
	loaded   bool
	applied  uint64 // sequence of the refresh that produced snapshot

	seq   atomic.Uint64
	guard *keyedGuard
}

// New creates a Controller with an empty snapshot. Call Refresh to load.
func New(opts Options) *Controller {
	l := opts.Logger
	if l == nil {
		l = logger.NewNop()
	}
	origin := opts.Origin
	if origin == "" {
		origin = uuid.NewString()
	}

	return &Controller{
		store:    opts.Store,
		logger:   l.With(zap.String("component", "dashboard")),
		notifier: opts.Notifier,
		origin:   origin,
		guard:    newKeyedGuard(),
	}
}

// Origin identifies this controller on change events
func (c *Controller) Origin() string {
	return c.origin
}

// Refresh re-fetches the players collection and rebuilds derived stats.
// On failure the previous snapshot is kept and a *FetchError is returned.
// A response that arrives after a newer refresh was already applied is
// discarded.
func (c *Controller) Refresh(ctx context.Context) error {
	seq := c.seq.Add(1)

	players, err := c.store.ListPlayers(ctx)
	if err != nil {
		c.mu.Lock()
		c.loaded = true
		c.mu.Unlock()

		metrics.ActionsTotal.WithLabelValues("refresh", "error").Inc()
		c.logger.Error("error fetching players", err)
		return &FetchError{Err: err}
	}

	derived, team := sabermetrics.Derive(players)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = true
	if seq < c.applied {
		c.logger.Debug("discarding stale refresh", zap.Uint64("seq", seq), zap.Uint64("applied", c.applied))
		return nil
	}

	c.applied = seq
	c.snapshot = players
	c.derived = derived
	c.team = team

	metrics.RosterSize.Set(float64(len(players)))
	metrics.ActionsTotal.WithLabelValues("refresh", "ok").Inc()
	return nil
}

// Submit inserts a player and returns the form the user should see next:
// the posted values on any failure so they can retry, the zero NewPlayer
// after a successful save. A blank name is rejected before any network
// call.
func (c *Controller) Submit(ctx context.Context, p models.NewPlayer) (models.NewPlayer, error) {
	if !p.HasName() {
		metrics.ActionsTotal.WithLabelValues("insert", "invalid").Inc()
		return p, &ValidationError{Field: "name", Message: "player name is required"}
	}

	key := "insert:" + strings.ToLower(strings.TrimSpace(p.Name))
	if !c.guard.acquire(key) {
		metrics.ActionsTotal.WithLabelValues("insert", "busy").Inc()
		return p, ErrBusy
	}
	defer c.guard.release(key)

	if err := c.store.InsertPlayer(ctx, p); err != nil {
		metrics.ActionsTotal.WithLabelValues("insert", "error").Inc()
		c.logger.Warn("insert failed", zap.String("name", p.Name), zap.Error(err))
		return p, &InsertError{Err: err}
	}

	metrics.ActionsTotal.WithLabelValues("insert", "ok").Inc()
	c.logger.Info("player added", zap.String("name", p.Name))

	c.notify(ctx, models.ChangeEvent{Kind: models.ChangeInsert, PlayerName: p.Name})

	// The insert already succeeded; a failed re-fetch is logged by Refresh
	// and leaves the previous list on screen.
	_ = c.Refresh(ctx)
	return models.NewPlayer{}, nil
}

// Delete removes a player once the user has confirmed. Failures surface
// as a *DeleteError with a generic message.
func (c *Controller) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	key := "delete:" + strconv.FormatInt(id, 10)
	if !c.guard.acquire(key) {
		metrics.ActionsTotal.WithLabelValues("delete", "busy").Inc()
		return ErrBusy
	}
	defer c.guard.release(key)

	if err := c.store.DeletePlayer(ctx, id); err != nil {
		metrics.ActionsTotal.WithLabelValues("delete", "error").Inc()
		c.logger.Warn("delete failed", zap.Int64("id", id), zap.Error(err))
		return &DeleteError{ID: id, Err: err}
	}

	metrics.ActionsTotal.WithLabelValues("delete", "ok").Inc()
	c.logger.Info("player deleted", zap.Int64("id", id))

	c.notify(ctx, models.ChangeEvent{Kind: models.ChangeDelete, PlayerID: id})

	_ = c.Refresh(ctx)
	return nil
}

// View returns the render model sorted by the metric
func (c *Controller) View(m sabermetrics.Metric) View {
	c.mu.RLock()
	derived := c.derived
	team := c.team
	loaded := c.loaded
	c.mu.RUnlock()

	leaders := make([]LeaderCard, len(leaderCards))
	for i, lc := range leaderCards {
		leaders[i] = LeaderCard{
			Label:  lc.label,
			Metric: lc.metric,
			Player: sabermetrics.Leader(derived, lc.metric),
		}
	}

	return View{
		Loaded:  loaded,
		Metric:  m,
		Players: sabermetrics.SortBy(derived, m),
		Team:    team,
		Leaders: leaders,
	}
}

// Snapshot returns a copy of the raw records of the last applied refresh
func (c *Controller) Snapshot() []models.PlayerRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.PlayerRecord, len(c.snapshot))
	copy(out, c.snapshot)
	return out
}

// Players returns the current derived rows in snapshot (id) order
func (c *Controller) Players() []models.DerivedPlayerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.DerivedPlayerStats, len(c.derived))
	copy(out, c.derived)
	return out
}

// Team returns the current team averages
func (c *Controller) Team() models.TeamAverages {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.team
}

// Ping checks the gateway is reachable
func (c *Controller) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *Controller) notify(ctx context.Context, ev models.ChangeEvent) {
	if c.notifier == nil {
		return
	}
	ev.EventID = uuid.NewString()
	ev.Origin = c.origin
	ev.OccurredAt = time.Now().UTC()
	c.notifier.RosterChanged(ctx, ev)
}

