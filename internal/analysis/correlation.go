package analysis

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/urbansignals/floodwatch/internal/model"
)

// CorrelationMatrix holds pairwise Pearson correlations between the
// analysis variables.
type CorrelationMatrix struct {
	Vars   []string    `json:"variables"`
	Values [][]float64 `json:"values"`
}

// At returns the correlation between two named variables.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	ai, bi := -1, -1
	for i, v := range m.Vars {
		if v == a {
			ai = i
		}
		if v == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0, false
	}
	return m.Values[ai][bi], true
}

// WithRate returns each variable's correlation with the complaint rate,
// in matrix variable order, excluding the rate itself.
func (m *CorrelationMatrix) WithRate() map[string]float64 {
	out := make(map[string]float64, len(m.Vars)-1)
	for _, v := range m.Vars {
		if v == VarComplaintRate {
			continue
		}
		if r, ok := m.At(VarComplaintRate, v); ok {
			out[v] = r
		}
	}
	return out
}

// Correlations computes the Pearson correlation matrix over tracts with
// defined rates.
func Correlations(summaries []model.TractSummary) (*CorrelationMatrix, error) {
	rows := defined(summaries)
	if len(rows) < 3 {
		return nil, eris.Errorf("analysis: need at least 3 tracts with defined rates, have %d", len(rows))
	}

	data := mat.NewDense(len(rows), len(AnalysisVars), nil)
	for j, name := range AnalysisVars {
		col := variable(rows, name)
		for i, v := range col {
			data.Set(i, j, v)
		}
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, data, nil)

	out := &CorrelationMatrix{
		Vars:   append([]string(nil), AnalysisVars...),
		Values: make([][]float64, len(AnalysisVars)),
	}
	for i := range AnalysisVars {
		out.Values[i] = make([]float64, len(AnalysisVars))
		for j := range AnalysisVars {
			out.Values[i][j] = corr.At(i, j)
		}
	}
	return out, nil
}
