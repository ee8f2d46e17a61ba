package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/urbansignals/floodwatch/internal/analysis"
	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/pkg/anthropic"
)

// reportVarLabels maps variable names to the labels used in the report.
var reportVarLabels = map[string]string{
	analysis.VarMedianIncome: "Median Income",
	analysis.VarPctCollege:   "College Education",
	analysis.VarPctPoverty:   "Poverty Rate",
	analysis.VarPctOwner:     "Owner Occupancy",
}

// ReportInput carries everything the summary report draws from.
type ReportInput struct {
	Year       int
	Total      int64
	Flood      int64
	Unassigned int64
	Result     *analysis.Result
}

// Reporter writes the markdown analysis summary. With a non-nil anthropic
// client it appends a model-drafted narrative; without one the report is
// fully deterministic.
type Reporter struct {
	ai        anthropic.Client
	model     string
	maxTokens int64
}

// NewReporter builds a Reporter. ai may be nil.
func NewReporter(ai anthropic.Client, aiModel string, maxTokens int64) *Reporter {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Reporter{ai: ai, model: aiModel, maxTokens: maxTokens}
}

// Write renders the analysis summary to w.
func (r *Reporter) Write(ctx context.Context, w io.Writer, in ReportInput) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "# NYC Flood-Related 311 Complaints Analysis Summary\n\n")
	fmt.Fprintf(&b, "## Overview\n\n")
	p.Fprintf(&b, "This report summarizes the analysis of flood-related 311 complaints in NYC for %d ", in.Year)
	fmt.Fprintf(&b, "and their relationship with socioeconomic factors at the census tract level.\n\n")

	fmt.Fprintf(&b, "## Key Findings\n\n")
	p.Fprintf(&b, "- Total 311 complaints processed: %d\n", in.Total)
	p.Fprintf(&b, "- Total flood-related complaints: %d\n", in.Flood)
	p.Fprintf(&b, "- Complaints outside any census tract: %d\n", in.Unassigned)
	if in.Result != nil {
		g := in.Result.Global
		p.Fprintf(&b, "- Census tracts analyzed: %d (%d with undefined rates)\n", g.TractCount, g.UndefinedRates)
		fmt.Fprintf(&b, "- Mean complaint rate: %.2f per 1,000 residents\n", g.MeanRate*1000)
		fmt.Fprintf(&b, "- Maximum complaint rate: %.2f per 1,000 residents\n", g.MaxRate*1000)
	}
	fmt.Fprintf(&b, "\n")

	if in.Result != nil && in.Result.Correlations != nil {
		writeCorrelationSection(&b, in.Result.Correlations)
	}
	if in.Result != nil && in.Result.Regression != nil {
		writeRegressionSection(&b, in.Result.Regression)
	}
	if in.Result != nil && len(in.Result.Hotspots) > 0 {
		writeHotspotSection(&b, p, in.Result.Hotspots)
	}

	writeConclusions(&b, in)

	if r.ai != nil {
		if narrative := r.narrative(ctx, b.String()); narrative != "" {
			fmt.Fprintf(&b, "## Narrative\n\n%s\n", narrative)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "pipeline: write report")
	}
	return nil
}

func writeCorrelationSection(b *strings.Builder, m *analysis.CorrelationMatrix) {
	fmt.Fprintf(b, "### Correlations with Complaint Rate\n\n")
	fmt.Fprintf(b, "| Socioeconomic Factor | Correlation with Complaint Rate |\n")
	fmt.Fprintf(b, "|---------------------|--------------------------------|\n")

	withRate := m.WithRate()
	names := make([]string, 0, len(withRate))
	for name := range withRate {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		label := reportVarLabels[name]
		if label == "" {
			label = name
		}
		fmt.Fprintf(b, "| %s | %.3f |\n", label, withRate[name])
	}
	fmt.Fprintf(b, "\n")
}

func writeRegressionSection(b *strings.Builder, reg *analysis.Regression) {
	fmt.Fprintf(b, "### Regression Results\n\n")
	fmt.Fprintf(b, "OLS regression of complaint rate on standardized socioeconomic factors (n=%d):\n\n", reg.N)
	fmt.Fprintf(b, "| Factor | Coefficient | p-value |\n")
	fmt.Fprintf(b, "|--------|-------------|--------|\n")
	for _, c := range reg.Coefficients {
		label := reportVarLabels[c.Variable]
		if label == "" {
			label = c.Variable
		}
		fmt.Fprintf(b, "| %s | %.6g | %.4f |\n", label, c.Estimate, c.PValue)
	}
	fmt.Fprintf(b, "\nR-squared: %.3f (adjusted %.3f)\n\n", reg.RSquared, reg.AdjRSquared)
}

func writeHotspotSection(b *strings.Builder, p *message.Printer, hotspots []model.TractSummary) {
	fmt.Fprintf(b, "### Complaint Hotspots\n\n")
	p.Fprintf(b, "%d census tracts have complaint rates more than one standard deviation above the mean:\n\n", len(hotspots))
	fmt.Fprintf(b, "| GEOID | Borough | Complaints | Rate per 1,000 |\n")
	fmt.Fprintf(b, "|-------|---------|-----------|---------------|\n")

	show := hotspots
	if len(show) > 10 {
		show = show[:10]
	}
	for _, h := range show {
		p.Fprintf(b, "| %s | %s | %d | ", h.GEOID, h.Borough, h.ComplaintCount)
		fmt.Fprintf(b, "%.2f |\n", h.RatePer1000)
	}
	fmt.Fprintf(b, "\n")
}

func writeConclusions(b *strings.Builder, in ReportInput) {
	fmt.Fprintf(b, "## Conclusions\n\n")
	fmt.Fprintf(b, "1. There is significant spatial variation in flood-related complaint rates across NYC census tracts.\n")
	if in.Result != nil && in.Result.Regression != nil {
		top := in.Result.Regression.TopPredictor()
		label := reportVarLabels[top.Variable]
		if label == "" {
			label = top.Variable
		}
		direction := "higher"
		if top.Estimate < 0 {
			direction = "lower"
		}
		fmt.Fprintf(b, "2. The strongest predictor of complaint rates is %s: tracts with %s values report more flood-related issues.\n", label, direction)
		fmt.Fprintf(b, "3. Socioeconomic gradients in reporting may reflect reporting disparities rather than actual differences in flooding incidence.\n")
	} else {
		fmt.Fprintf(b, "2. Too few tracts had defined rates to fit a regression model for this run.\n")
	}
	fmt.Fprintf(b, "\n")
}

// narrative asks the model for a short plain-language summary of the
// computed report. Failures are logged and the section is dropped.
func (r *Reporter) narrative(ctx context.Context, report string) string {
	resp, err := r.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		System:    "You summarize statistical reports about municipal service data for a general audience. Two short paragraphs, no headings, no numbers invented beyond those given.",
		Messages: []anthropic.Message{
			{Role: "user", Content: "Summarize this analysis report:\n\n" + report},
		},
	})
	if err != nil {
		zap.L().Warn("pipeline: narrative generation failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(resp.Text)
}
