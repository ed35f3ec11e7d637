package models

import "strings"

// NewPlayer is a players row without its identity: the insert payload and
// the dashboard form state. The zero value is the cleared form.
type NewPlayer struct {
	Name    string `json:"name"`
	PA      int    `json:"pa"`
	Hits    int    `json:"hits"`
	Double  int    `json:"double"`
	Triple  int    `json:"triple"`
	Homerun int    `json:"homerun"`
	Walks   int    `json:"walks"`
	SB      int    `json:"sb"`
	SBFail  int    `json:"sb_fail"` // absent or null decodes as 0
}

// PlayerRecord represents a persisted row of the players collection
type PlayerRecord struct {
	ID int64 `json:"id"`
	NewPlayer
}

// DerivedPlayerStats is a PlayerRecord extended with computed rates.
// It is never written back to the players collection.
type DerivedPlayerStats struct {
	PlayerRecord
	AtBats         int     `json:"atBats"`
	Singles        int     `json:"singles"`
	TotalBases     int     `json:"totalBases"`
	AVG            float64 `json:"avg"`
	OBP            float64 `json:"obp"`
	SLG            float64 `json:"slg"`
	OPS            float64 `json:"ops"`
	RunsCreated    float64 `json:"runsCreated"`
	StolenBaseRate float64 `json:"stolenBaseRate"`
	OPSPlusIndex   float64 `json:"opsPlusIndex"`
	WARProxy       float64 `json:"warProxy"`
}

// TeamAverages holds the normalization basis for league-relative metrics
type TeamAverages struct {
	Players    int     `json:"players"`
	TeamAvg    float64 `json:"teamAvg"`
	TeamAvgOPS float64 `json:"teamAvgOps"`
	TeamAvgRC  float64 `json:"teamAvgRC"`
}

// HasName reports whether the form carries a non-blank player name
func (p NewPlayer) HasName() bool {
	return strings.TrimSpace(p.Name) != ""
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
