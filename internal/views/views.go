// Package views renders the dashboard page. Components live in the .templ
// files; run `templ generate` after editing them.
package views

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/sabermetrics"
)

// Alert kinds
const (
	AlertError = "error"
	AlertInfo  = "info"
)

const defaultTitle = "Batting Dashboard"

// Alert is a one-off message shown above the form
type Alert struct {
	Kind    string
	Message string
}

// PageData is everything the dashboard page renders. Form is the input
// of the request being answered, zero for a plain page load.
type PageData struct {
	Title string
	View  dashboard.View
	Form  models.NewPlayer
	Alert *Alert
}

type formField struct {
	name, label string
	value       func(models.NewPlayer) int
}

var formFields = []formField{
	{"pa", "PA", func(p models.NewPlayer) int { return p.PA }},
	{"hits", "H", func(p models.NewPlayer) int { return p.Hits }},
	{"double", "2B", func(p models.NewPlayer) int { return p.Double }},
	{"triple", "3B", func(p models.NewPlayer) int { return p.Triple }},
	{"homerun", "HR", func(p models.NewPlayer) int { return p.Homerun }},
	{"walks", "BB", func(p models.NewPlayer) int { return p.Walks }},
	{"sb", "SB", func(p models.NewPlayer) int { return p.SB }},
	{"sb_fail", "CS", func(p models.NewPlayer) int { return p.SBFail }},
}

type tableColumn struct {
	label  string
	metric sabermetrics.Metric // empty when the column is not sortable
}

var tableColumns = []tableColumn{
	{"PA", sabermetrics.MetricPA},
	{"AB", ""},
	{"H", sabermetrics.MetricHits},
	{"2B", ""},
	{"3B", ""},
	{"HR", sabermetrics.MetricHomerun},
	{"BB", sabermetrics.MetricWalks},
	{"SB", sabermetrics.MetricSB},
	{"AVG", sabermetrics.MetricAVG},
	{"OBP", sabermetrics.MetricOBP},
	{"SLG", sabermetrics.MetricSLG},
	{"OPS", sabermetrics.MetricOPS},
	{"RC", sabermetrics.MetricRunsCreated},
	{"SB%", sabermetrics.MetricStolenBaseRate},
	{"OPS+", sabermetrics.MetricOPSPlusIndex},
	{"WAR", sabermetrics.MetricWARProxy},
}

func emptyTableSpan() string {
	return strconv.Itoa(len(tableColumns) + 2)
}

type teamStat struct {
	label, value string
}

func teamStats(t models.TeamAverages) []teamStat {
	return []teamStat{
		{"Players", strconv.Itoa(t.Players)},
		{"AVG", Rate(t.TeamAvg)},
		{"OPS", Rate(t.TeamAvgOPS)},
		{"RC", fmt.Sprintf("%.1f", t.TeamAvgRC)},
	}
}

func playerCells(p models.DerivedPlayerStats) []string {
	return []string{
		strconv.Itoa(p.PA), strconv.Itoa(p.AtBats), strconv.Itoa(p.Hits),
		strconv.Itoa(p.Double), strconv.Itoa(p.Triple), strconv.Itoa(p.Homerun),
		strconv.Itoa(p.Walks), strconv.Itoa(p.SB),
		Rate(p.AVG), Rate(p.OBP), Rate(p.SLG), Rate(p.OPS),
		fmt.Sprintf("%.1f", p.RunsCreated),
		fmt.Sprintf("%.1f%%", p.StolenBaseRate),
		fmt.Sprintf("%.0f", p.OPSPlusIndex),
		fmt.Sprintf("%.2f", p.WARProxy),
	}
}

func pageTitle(title string) string {
	if title == "" {
		return defaultTitle
	}
	return title
}

func alertClass(kind string) string {
	if kind != AlertInfo {
		kind = AlertError
	}
	return "alert alert-" + kind
}

func sortURL(m sabermetrics.Metric) string {
	return "/?sort=" + url.QueryEscape(string(m))
}

func addURL(m sabermetrics.Metric) string {
	return "/players?sort=" + url.QueryEscape(string(m))
}

func deleteURL(id int64, m sabermetrics.Metric) string {
	return "/players/" + strconv.FormatInt(id, 10) + "/delete?sort=" + url.QueryEscape(string(m))
}

// Rate formats a rate stat the way box scores do (.375, 1.125)
func Rate(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	if len(s) > 1 && s[0] == '0' {
		return s[1:]
	}
	return s
}

// FormatMetric formats a value for the given metric
func FormatMetric(m sabermetrics.Metric, v float64) string {
	switch m {
	case sabermetrics.MetricAVG, sabermetrics.MetricOBP, sabermetrics.MetricSLG, sabermetrics.MetricOPS:
		return Rate(v)
	case sabermetrics.MetricWARProxy:
		return fmt.Sprintf("%.2f", v)
	case sabermetrics.MetricRunsCreated:
		return fmt.Sprintf("%.1f", v)
	case sabermetrics.MetricStolenBaseRate:
		return fmt.Sprintf("%.1f%%", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
