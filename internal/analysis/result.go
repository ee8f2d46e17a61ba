package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/model"
)

// Result bundles every statistical output of a run.
type Result struct {
	Descriptives []Descriptive        `json:"descriptives"`
	Correlations *CorrelationMatrix   `json:"correlations"`
	Regression   *Regression          `json:"regression"`
	Hotspots     []model.TractSummary `json:"hotspots"`
	Global       GlobalStats          `json:"global"`
}

// Run computes the full analysis over summary rows. Correlation and
// regression failures on degenerate inputs (too few tracts) are logged
// and leave the corresponding field nil rather than failing the run.
func Run(summaries []model.TractSummary) (*Result, error) {
	if len(summaries) == 0 {
		return nil, eris.New("analysis: no tract summaries")
	}

	res := &Result{
		Descriptives: Describe(summaries),
		Hotspots:     Hotspots(summaries),
		Global:       Global(summaries),
	}

	corr, err := Correlations(summaries)
	if err != nil {
		zap.L().Warn("analysis: skipping correlations", zap.Error(err))
	} else {
		res.Correlations = corr
	}

	reg, err := Fit(summaries)
	if err != nil {
		zap.L().Warn("analysis: skipping regression", zap.Error(err))
	} else {
		res.Regression = reg
	}

	return res, nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// WriteDescriptivesCSV writes the descriptive statistics table.
func WriteDescriptivesCSV(w io.Writer, rows []Descriptive) error {
	cw := csv.NewWriter(w)
	header := []string{"variable", "count", "mean", "std", "min", "q25", "median", "q75", "max", "skew", "kurtosis"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "analysis: write descriptives header")
	}
	for _, d := range rows {
		rec := []string{
			d.Variable, strconv.Itoa(d.Count),
			fmtFloat(d.Mean), fmtFloat(d.StdDev), fmtFloat(d.Min), fmtFloat(d.Q25),
			fmtFloat(d.Median), fmtFloat(d.Q75), fmtFloat(d.Max), fmtFloat(d.Skew), fmtFloat(d.Kurtosis),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "analysis: write descriptives row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "analysis: flush descriptives")
}

// WriteCorrelationsCSV writes the correlation matrix with variable names
// as both header and row labels.
func WriteCorrelationsCSV(w io.Writer, m *CorrelationMatrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, m.Vars...)); err != nil {
		return eris.Wrap(err, "analysis: write correlation header")
	}
	for i, name := range m.Vars {
		rec := make([]string, 0, len(m.Vars)+1)
		rec = append(rec, name)
		for j := range m.Vars {
			rec = append(rec, fmtFloat(m.Values[i][j]))
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "analysis: write correlation row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "analysis: flush correlations")
}

// WriteRegressionText writes an OLS summary in plain text.
func WriteRegressionText(w io.Writer, r *Regression) error {
	write := func(format string, args ...any) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	}

	if err := write("OLS Regression: complaint_rate ~ standardized covariates\n\n"); err != nil {
		return eris.Wrap(err, "analysis: write regression summary")
	}
	_ = write("observations: %d\n", r.N)
	_ = write("r_squared:     %.6f\n", r.RSquared)
	_ = write("adj_r_squared: %.6f\n\n", r.AdjRSquared)
	_ = write("%-22s %12s %12s %10s %10s\n", "term", "estimate", "std_err", "t", "p")

	terms := append([]Coefficient{r.Intercept}, r.Coefficients...)
	for _, c := range terms {
		if err := write("%-22s %12.6g %12.6g %10.4f %10.4f\n",
			c.Variable, c.Estimate, c.StdErr, c.TValue, c.PValue); err != nil {
			return eris.Wrap(err, "analysis: write regression term")
		}
	}
	return nil
}

// WriteHotspotsCSV writes the hotspot tract list.
func WriteHotspotsCSV(w io.Writer, hot []model.TractSummary) error {
	cw := csv.NewWriter(w)
	header := []string{"geoid", "name", "borough", "population", "complaint_count", "rate_per_1000"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "analysis: write hotspots header")
	}
	for _, s := range hot {
		rec := []string{
			s.GEOID, s.Name, s.Borough,
			strconv.FormatInt(s.Population, 10),
			strconv.FormatInt(s.ComplaintCount, 10),
			fmtFloat(s.RatePer1000),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "analysis: write hotspots row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "analysis: flush hotspots")
}
