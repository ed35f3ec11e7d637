package sabermetrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
)

// Metric names a sortable field of DerivedPlayerStats
type Metric string

const (
	MetricOPS            Metric = "ops"
	MetricAVG            Metric = "avg"
	MetricOBP            Metric = "obp"
	MetricSLG            Metric = "slg"
	MetricRunsCreated    Metric = "runsCreated"
	MetricStolenBaseRate Metric = "stolenBaseRate"
	MetricOPSPlusIndex   Metric = "opsPlusIndex"
	MetricWARProxy       Metric = "warProxy"
	MetricPA             Metric = "pa"
	MetricHits           Metric = "hits"
	MetricHomerun        Metric = "homerun"
	MetricWalks          Metric = "walks"
	MetricSB             Metric = "sb"
)

// DefaultMetric is the dashboard's initial sort key
const DefaultMetric = MetricOPS

// ErrUnknownMetric is returned by ParseMetric for keys outside Metrics()
var ErrUnknownMetric = errors.New("unknown metric")

var extractors = map[Metric]func(models.DerivedPlayerStats) float64{
	MetricOPS:            func(p models.DerivedPlayerStats) float64 { return p.OPS },
	MetricAVG:            func(p models.DerivedPlayerStats) float64 { return p.AVG },
	MetricOBP:            func(p models.DerivedPlayerStats) float64 { return p.OBP },
	MetricSLG:            func(p models.DerivedPlayerStats) float64 { return p.SLG },
	MetricRunsCreated:    func(p models.DerivedPlayerStats) float64 { return p.RunsCreated },
	MetricStolenBaseRate: func(p models.DerivedPlayerStats) float64 { return p.StolenBaseRate },
	MetricOPSPlusIndex:   func(p models.DerivedPlayerStats) float64 { return p.OPSPlusIndex },
	MetricWARProxy:       func(p models.DerivedPlayerStats) float64 { return p.WARProxy },
	MetricPA:             func(p models.DerivedPlayerStats) float64 { return float64(p.PA) },
	MetricHits:           func(p models.DerivedPlayerStats) float64 { return float64(p.Hits) },
	MetricHomerun:        func(p models.DerivedPlayerStats) float64 { return float64(p.Homerun) },
	MetricWalks:          func(p models.DerivedPlayerStats) float64 { return float64(p.Walks) },
	MetricSB:             func(p models.DerivedPlayerStats) float64 { return float64(p.SB) },
}

// Metrics lists every sortable key in display order
func Metrics() []Metric {
	return []Metric{
		MetricOPS, MetricAVG, MetricOBP, MetricSLG, MetricRunsCreated,
		MetricOPSPlusIndex, MetricWARProxy, MetricStolenBaseRate,
		MetricPA, MetricHits, MetricHomerun, MetricWalks, MetricSB,
	}
}

// ParseMetric resolves a sort key. An empty key selects DefaultMetric;
// matching is case-insensitive.
func ParseMetric(key string) (Metric, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return DefaultMetric, nil
	}
	for m := range extractors {
		if strings.EqualFold(string(m), key) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, key)
}

// Value returns the metric's value for a player; unknown metrics read as 0
func (m Metric) Value(p models.DerivedPlayerStats) float64 {
	if fn, ok := extractors[m]; ok {
		return fn(p)
	}
	return 0
}

// SortBy returns a new slice ordered descending by the metric.
// The sort is stable: players with equal values keep their input order,
// which is id ascending when the input comes straight from the gateway.
func SortBy(players []models.DerivedPlayerStats, m Metric) []models.DerivedPlayerStats {
	sorted := make([]models.DerivedPlayerStats, len(players))
	copy(sorted, players)

	sort.SliceStable(sorted, func(i, j int) bool {
		return m.Value(sorted[i]) > m.Value(sorted[j])
	})

	return sorted
}

// Placeholder is the zero-valued row returned by Leader for an empty roster
func Placeholder() models.DerivedPlayerStats {
	return models.DerivedPlayerStats{
		PlayerRecord: models.PlayerRecord{NewPlayer: models.NewPlayer{Name: "-"}},
	}
}

// Leader returns the top player by the metric, or Placeholder() when the
// roster is empty
func Leader(players []models.DerivedPlayerStats, m Metric) models.DerivedPlayerStats {
	if len(players) == 0 {
		return Placeholder()
	}
	return SortBy(players, m)[0]
}
