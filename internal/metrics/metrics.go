package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Persistence gateway
	GatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_gateway_requests_total",
		Help: "Calls made to the players collection, by operation and outcome",
	}, []string{"operation", "outcome"})
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_gateway_latency_seconds",
		Help:    "Latency of players collection calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// Dashboard controller
	RosterSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_roster_size",
		Help: "Number of players in the current snapshot",
	})
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_actions_total",
		Help: "Dashboard actions by kind and result",
	}, []string{"action", "result"})

	// Change fan-out
	ChangeEventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_change_events_published_total",
		Help: "Roster change events written to the Redis stream",
	})
	ChangeEventsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_change_events_consumed_total",
		Help: "Roster change events read from the Redis stream",
	})
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_websocket_clients",
		Help: "Connected live-refresh websocket clients",
	})
)

// Outcome labels a gateway call result
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
