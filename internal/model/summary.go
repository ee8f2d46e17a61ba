package model

import "time"

// TractSummary is one output row of the aggregation stage: a census tract
// with its complaint count, per-capita rate, and joined demographics.
// Recomputed each pipeline run; it has no identity beyond the output files.
type TractSummary struct {
	GEOID          string       `json:"geoid"`
	Name           string       `json:"name,omitempty"`
	Borough        string       `json:"borough,omitempty"`
	Population     int64        `json:"population"`
	ComplaintCount int64        `json:"complaint_count"`
	Rate           float64      `json:"complaint_rate"`
	RatePer1000    float64      `json:"complaint_rate_per_1000"`
	RateDefined    bool         `json:"rate_defined"`
	Demo           Demographics `json:"demographics"`
}

// NewTractSummary derives the summary row for a tract given its complaint
// count. Rate is count/population exactly; tracts with zero population get
// RateDefined == false and zero rates rather than being dropped.
func NewTractSummary(t *Tract, count int64) TractSummary {
	s := TractSummary{
		GEOID:          t.GEOID,
		Name:           t.Name,
		Borough:        t.Borough,
		Population:     t.Population,
		ComplaintCount: count,
		Demo:           t.Demo,
	}
	if t.Population > 0 {
		s.Rate = float64(count) / float64(t.Population)
		s.RatePer1000 = s.Rate * 1000
		s.RateDefined = true
	}
	return s
}

// RunStatus tracks pipeline run lifecycle in the run store.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// PhaseStatus tracks a single pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// Run is a stored pipeline run record.
type Run struct {
	ID        string     `json:"id"`
	Year      int        `json:"year"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunPhase is a stored phase record within a run.
type RunPhase struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Name      string      `json:"name"`
	Status    PhaseStatus `json:"status"`
	StartedAt time.Time   `json:"started_at"`
}

// PhaseResult summarizes one pipeline phase for the run store.
type PhaseResult struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Rows     int64       `json:"rows"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// RunResult is the terminal record of a pipeline run.
type RunResult struct {
	Year            int           `json:"year"`
	TotalComplaints int64         `json:"total_complaints"`
	FloodComplaints int64         `json:"flood_complaints"`
	Joined          int64         `json:"joined"`
	Unassigned      int64         `json:"unassigned"`
	Tracts          int64         `json:"tracts"`
	Phases          []PhaseResult `json:"phases,omitempty"`
}
