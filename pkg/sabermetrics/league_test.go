package sabermetrics_test

import (
	"math"
	"testing"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/sabermetrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	team := sabermetrics.Summarize(nil)
	assert.Equal(t, models.TeamAverages{}, team)
}

func TestSummarize_Means(t *testing.T) {
	team := sabermetrics.Summarize([]models.DerivedPlayerStats{
		{OPS: 0.8, RunsCreated: 4, AVG: 0.250},
		{OPS: 1.2, RunsCreated: 8, AVG: 0.350},
	})

	assert.Equal(t, 2, team.Players)
	assert.InDelta(t, 1.0, team.TeamAvgOPS, epsilon)
	assert.InDelta(t, 6.0, team.TeamAvgRC, epsilon)
	assert.InDelta(t, 0.300, team.TeamAvg, epsilon)
}

func TestApplyLeagueContext(t *testing.T) {
	players := []models.DerivedPlayerStats{
		{OPS: 0.8, RunsCreated: 4},
		{OPS: 1.2, RunsCreated: 8},
	}
	team := sabermetrics.Summarize(players)

	first := sabermetrics.ApplyLeagueContext(players[0], team)
	second := sabermetrics.ApplyLeagueContext(players[1], team)

	assert.InDelta(t, 80, first.OPSPlusIndex, 1e-6)
	assert.InDelta(t, 120, second.OPSPlusIndex, 1e-6)
	assert.InDelta(t, -0.4, first.WARProxy, 1e-9)
	assert.InDelta(t, 0.4, second.WARProxy, 1e-9)
}

func TestApplyLeagueContext_ZeroTeamOPS(t *testing.T) {
	p := sabermetrics.ApplyLeagueContext(models.DerivedPlayerStats{OPS: 0}, models.TeamAverages{})
	assert.Zero(t, p.OPSPlusIndex)
	assert.False(t, math.IsNaN(p.OPSPlusIndex))
}

func TestDerive_PreservesOrderAndNormalizes(t *testing.T) {
	records := []models.PlayerRecord{
		record("Kim", 20, 6, 1, 0, 1, 4, 2, 0),
		record("Lee", 20, 4, 0, 0, 0, 2, 0, 1),
		record("Park", 0, 0, 0, 0, 0, 0, 0, 0),
	}
	records[0].ID, records[1].ID, records[2].ID = 1, 2, 3

	derived, team := sabermetrics.Derive(records)
	require.Len(t, derived, 3)

	for i, d := range derived {
		assert.Equal(t, records[i].ID, d.ID, "order must match input")
	}

	var opsSum float64
	for _, d := range derived {
		opsSum += d.OPS
	}
	assert.InDelta(t, opsSum/3, team.TeamAvgOPS, epsilon)

	// Mean of the OPS index over the roster is 100 by construction
	var idxSum float64
	for _, d := range derived {
		idxSum += d.OPSPlusIndex
	}
	assert.InDelta(t, 100, idxSum/3, 1e-6)

	// WAR proxy sums to zero around the team mean
	var warSum float64
	for _, d := range derived {
		warSum += d.WARProxy
	}
	assert.InDelta(t, 0, warSum, 1e-9)
}

func TestDerive_Empty(t *testing.T) {
	derived, team := sabermetrics.Derive(nil)
	assert.Empty(t, derived)
	assert.Equal(t, models.TeamAverages{}, team)
}
