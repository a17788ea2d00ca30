package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusPreparing RunStatus = "preparing"
	RunStatusAnalyzing RunStatus = "analyzing"
	RunStatusRendering RunStatus = "rendering"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a single end-to-end analysis run over the curated datasets.
type Run struct {
	ID        string     `json:"id"`
	Year      int        `json:"year"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run: the headline statistics and
// the figure artifacts produced.
type RunResult struct {
	Jurisdictions int      `json:"jurisdictions"`
	NoIDStates    int      `json:"no_id_states"`
	IDReqStates   int      `json:"id_req_states"`
	NoIDAvgScore  float64  `json:"no_id_avg_score"`
	IDReqAvgScore float64  `json:"id_req_avg_score"`
	Figures       []string `json:"figures"`
	Error         string   `json:"error,omitempty"`
}

// Artifact records one generated output file.
type Artifact struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Kind      string    `json:"kind"` // map, chart, table, narrative, export
	CreatedAt time.Time `json:"created_at"`
}

// BenefitStat is one persisted per-benefit comparison between the two
// voter-ID policy groups.
type BenefitStat struct {
	RunID     string  `json:"run_id"`
	Benefit   string  `json:"benefit"`
	NoIDPct   float64 `json:"no_id_pct"`
	IDReqPct  float64 `json:"id_req_pct"`
	OddsRatio float64 `json:"odds_ratio"`
	PValue    float64 `json:"p_value"`
}

// TrendTest is one persisted logistic-regression trend test across the
// five strictness tiers.
type TrendTest struct {
	RunID   string  `json:"run_id"`
	Benefit string  `json:"benefit"`
	Slope   float64 `json:"slope"`
	PTrend  float64 `json:"p_trend"`
}
