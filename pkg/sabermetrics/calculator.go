// Package sabermetrics derives batting rates from raw counting stats.
// Every function is pure: the same records always produce the same output.
package sabermetrics

import "github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"

// Calculate derives the per-player fields of a record.
// League-relative fields (OPSPlusIndex, WARProxy) are left at zero; they
// need the whole roster and are filled in by ApplyLeagueContext.
//
// Every division is guarded, so a record with PA = 0 yields zero rates
// rather than NaN. Negative counts are not rejected.
func Calculate(p models.PlayerRecord) models.DerivedPlayerStats {
	atBats := p.PA - p.Walks
	singles := p.Hits - (p.Double + p.Triple + p.Homerun)
	totalBases := singles + 2*p.Double + 3*p.Triple + 4*p.Homerun

	d := models.DerivedPlayerStats{
		PlayerRecord: p,
		AtBats:       atBats,
		Singles:      singles,
		TotalBases:   totalBases,
	}

	if atBats > 0 {
		d.AVG = float64(p.Hits) / float64(atBats)
		d.SLG = float64(totalBases) / float64(atBats)
	}

	if p.PA > 0 {
		onBase := p.Hits + p.Walks
		d.OBP = float64(onBase) / float64(p.PA)
		// Basic runs created: (H + BB) * TB / PA
		d.RunsCreated = float64(onBase) * float64(totalBases) / float64(p.PA)
	}

	d.OPS = d.OBP + d.SLG
	d.StolenBaseRate = StolenBaseRate(p.SB, p.SBFail)

	return d
}

// StolenBaseRate returns successful steals as a percentage of attempts.
// 3 SB, 1 CS → 75; no attempts → 0
func StolenBaseRate(sb, sbFail int) float64 {
	attempts := sb + sbFail
	if attempts <= 0 {
		return 0
	}
	return 100.0 * float64(sb) / float64(attempts)
}
