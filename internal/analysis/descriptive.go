// Package analysis computes the statistical outputs of a run: descriptive
// statistics, correlations between complaint rates and socioeconomic
// variables, an OLS regression, and hotspot detection. Tracts without a
// defined rate are excluded from every computation here.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/urbansignals/floodwatch/internal/model"
)

// Variable names, in the order they appear in reports and matrices.
const (
	VarComplaintCount = "complaint_count"
	VarComplaintRate  = "complaint_rate"
	VarPopulation     = "population"
	VarMedianIncome   = "median_income"
	VarPctCollege     = "pct_college"
	VarPctPoverty     = "pct_poverty"
	VarPctOwner       = "pct_owner_occupied"
	VarPctMinority    = "pct_minority"
)

// DescriptiveVars lists variables included in the descriptive table.
var DescriptiveVars = []string{
	VarComplaintCount, VarComplaintRate, VarPopulation,
	VarMedianIncome, VarPctCollege, VarPctPoverty, VarPctOwner,
}

// AnalysisVars lists variables included in the correlation matrix.
var AnalysisVars = []string{
	VarComplaintRate, VarMedianIncome, VarPctCollege, VarPctPoverty, VarPctOwner,
}

// Descriptive summarizes a single variable across tracts.
type Descriptive struct {
	Variable string  `json:"variable"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std"`
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	Skew     float64 `json:"skew"`
	Kurtosis float64 `json:"kurtosis"`
}

// defined filters summaries down to tracts with a defined rate.
func defined(summaries []model.TractSummary) []model.TractSummary {
	out := make([]model.TractSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.RateDefined {
			out = append(out, s)
		}
	}
	return out
}

// variable extracts one named column from summary rows.
func variable(summaries []model.TractSummary, name string) []float64 {
	vals := make([]float64, len(summaries))
	for i, s := range summaries {
		switch name {
		case VarComplaintCount:
			vals[i] = float64(s.ComplaintCount)
		case VarComplaintRate:
			vals[i] = s.Rate
		case VarPopulation:
			vals[i] = float64(s.Population)
		case VarMedianIncome:
			vals[i] = s.Demo.MedianIncome
		case VarPctCollege:
			vals[i] = s.Demo.PctCollege
		case VarPctPoverty:
			vals[i] = s.Demo.PctPoverty
		case VarPctOwner:
			vals[i] = s.Demo.PctOwnerOccupied
		case VarPctMinority:
			vals[i] = s.Demo.PctMinority
		}
	}
	return vals
}

// Describe computes descriptive statistics for each analysis variable
// over tracts with defined rates.
func Describe(summaries []model.TractSummary) []Descriptive {
	rows := defined(summaries)

	out := make([]Descriptive, 0, len(DescriptiveVars))
	for _, name := range DescriptiveVars {
		vals := variable(rows, name)
		out = append(out, describeOne(name, vals))
	}
	return out
}

func describeOne(name string, vals []float64) Descriptive {
	d := Descriptive{Variable: name, Count: len(vals)}
	if len(vals) == 0 {
		return d
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	d.Mean, d.StdDev = stat.MeanStdDev(vals, nil)
	if math.IsNaN(d.StdDev) {
		d.StdDev = 0
	}
	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	d.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	d.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	d.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	d.Skew = stat.Skew(vals, nil)
	d.Kurtosis = stat.ExKurtosis(vals, nil)
	if math.IsNaN(d.Skew) {
		d.Skew = 0
	}
	if math.IsNaN(d.Kurtosis) {
		d.Kurtosis = 0
	}
	return d
}
