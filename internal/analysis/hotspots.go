package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/urbansignals/floodwatch/internal/model"
)

// Hotspots returns tracts whose complaint rate exceeds the mean by more
// than one standard deviation, sorted by rate descending with GEOID as
// the tie-break. Only tracts with defined rates participate.
func Hotspots(summaries []model.TractSummary) []model.TractSummary {
	rows := defined(summaries)
	if len(rows) < 2 {
		return nil
	}

	rates := variable(rows, VarComplaintRate)
	mean, std := stat.MeanStdDev(rates, nil)
	threshold := mean + std

	var hot []model.TractSummary
	for _, s := range rows {
		if s.Rate > threshold {
			hot = append(hot, s)
		}
	}

	sort.Slice(hot, func(i, j int) bool {
		if hot[i].Rate != hot[j].Rate {
			return hot[i].Rate > hot[j].Rate
		}
		return hot[i].GEOID < hot[j].GEOID
	})
	return hot
}

// GlobalStats summarizes the rate distribution for the report.
type GlobalStats struct {
	TotalComplaints int64   `json:"total_complaints"`
	TractCount      int     `json:"tract_count"`
	UndefinedRates  int     `json:"undefined_rates"`
	MeanRate        float64 `json:"mean_rate"`
	MedianRate      float64 `json:"median_rate"`
	MinRate         float64 `json:"min_rate"`
	MaxRate         float64 `json:"max_rate"`
}

// Global computes run-level statistics across all summaries.
func Global(summaries []model.TractSummary) GlobalStats {
	g := GlobalStats{TractCount: len(summaries)}

	rows := defined(summaries)
	g.UndefinedRates = len(summaries) - len(rows)
	for _, s := range summaries {
		g.TotalComplaints += s.ComplaintCount
	}
	if len(rows) == 0 {
		return g
	}

	rates := variable(rows, VarComplaintRate)
	sorted := append([]float64(nil), rates...)
	sort.Float64s(sorted)

	g.MeanRate = stat.Mean(rates, nil)
	g.MedianRate = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	g.MinRate = sorted[0]
	g.MaxRate = sorted[len(sorted)-1]
	return g
}
