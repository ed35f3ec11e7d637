package sabermetrics

import "github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"

// RunsPerWin is the fixed divisor of the WAR proxy: every 5 runs created
// above the team mean count as one win. It is a plain linear scaling, not a
// calibrated replacement-level model.
const RunsPerWin = 5.0

// Summarize computes team means over the per-player results.
// An empty roster yields all zeros.
func Summarize(players []models.DerivedPlayerStats) models.TeamAverages {
	n := len(players)
	if n == 0 {
		return models.TeamAverages{}
	}

	var avg, ops, rc float64
	for _, p := range players {
		avg += p.AVG
		ops += p.OPS
		rc += p.RunsCreated
	}

	return models.TeamAverages{
		Players:    n,
		TeamAvg:    avg / float64(n),
		TeamAvgOPS: ops / float64(n),
		TeamAvgRC:  rc / float64(n),
	}
}

// ApplyLeagueContext fills the team-relative fields of one player
func ApplyLeagueContext(p models.DerivedPlayerStats, team models.TeamAverages) models.DerivedPlayerStats {
	p.OPSPlusIndex = 0
	if team.TeamAvgOPS > 0 {
		p.OPSPlusIndex = 100.0 * p.OPS / team.TeamAvgOPS
	}
	p.WARProxy = (p.RunsCreated - team.TeamAvgRC) / RunsPerWin
	return p
}

// Derive runs the full pipeline over a roster: per-player rates, team
// averages, then the league-relative pass. Output order matches input order.
func Derive(records []models.PlayerRecord) ([]models.DerivedPlayerStats, models.TeamAverages) {
	derived := make([]models.DerivedPlayerStats, len(records))
	for i, r := range records {
		derived[i] = Calculate(r)
	}

	team := Summarize(derived)
	for i := range derived {
		derived[i] = ApplyLeagueContext(derived[i], team)
	}

	return derived, team
}
