package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/analysis"
	"github.com/urbansignals/floodwatch/internal/config"
	"github.com/urbansignals/floodwatch/internal/ingest"
	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/internal/observability"
	"github.com/urbansignals/floodwatch/internal/spatial"
	"github.com/urbansignals/floodwatch/internal/store"
)

// Pipeline orchestrates the processing stages over ingested data and
// records run progress in the store.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	metrics  *observability.Metrics
	reporter *Reporter
}

// New creates a Pipeline with its dependencies. store and metrics may be
// nil; stages then run without persistence or instrumentation.
func New(cfg *config.Config, st store.Store, metrics *observability.Metrics, reporter *Reporter) *Pipeline {
	if reporter == nil {
		reporter = NewReporter(nil, "", 0)
	}
	return &Pipeline{cfg: cfg, store: st, metrics: metrics, reporter: reporter}
}

// Output bundles everything a run produced, for callers that render maps
// afterwards.
type Output struct {
	RunID     string
	Summaries []model.TractSummary
	Joined    []model.JoinedComplaint
	Flood     []model.Complaint
	Analysis  *analysis.Result
	Result    *model.RunResult
}

// Run executes filter, join, aggregate, analyze, and report over the
// given complaints and tracts, writing result files to the configured
// results directory.
func (p *Pipeline) Run(ctx context.Context, complaints []model.Complaint, tracts []*model.Tract) (*Output, error) {
	log := zap.L().With(zap.Int("year", p.cfg.Filter.Year))
	log.Info("pipeline: starting run",
		zap.Int("complaints", len(complaints)),
		zap.Int("tracts", len(tracts)),
	)

	if p.metrics != nil {
		p.metrics.PipelineRunning.Set(1)
		defer p.metrics.PipelineRunning.Set(0)
		p.metrics.ComplaintsIngested.Add(float64(len(complaints)))
		p.metrics.TractsLoaded.Set(float64(len(tracts)))
	}

	out := &Output{Result: &model.RunResult{
		Year:            p.cfg.Filter.Year,
		TotalComplaints: int64(len(complaints)),
		Tracts:          int64(len(tracts)),
	}}

	var run *model.Run
	if p.store != nil {
		var err error
		run, err = p.store.CreateRun(ctx, p.cfg.Filter.Year)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		out.RunID = run.ID
		p.setStatus(ctx, run, model.RunStatusRunning)
	}

	trackPhase := func(name string, fn func() (int64, error)) error {
		var phase *model.RunPhase
		if p.store != nil && run != nil {
			var phaseErr error
			phase, phaseErr = p.store.CreatePhase(ctx, run.ID, name)
			if phaseErr != nil {
				log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
			}
		}

		start := time.Now()
		rows, fnErr := fn()
		duration := time.Since(start)

		result := &model.PhaseResult{
			Name:     name,
			Rows:     rows,
			Duration: duration.Milliseconds(),
			Status:   model.PhaseStatusComplete,
		}
		if fnErr != nil {
			result.Status = model.PhaseStatusFailed
			result.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Duration("duration", duration),
				zap.Error(fnErr),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("rows", rows),
				zap.Duration("duration", duration),
			)
		}

		if p.metrics != nil {
			p.metrics.PhaseDuration.WithLabelValues(name).Observe(duration.Seconds())
		}
		if phase != nil {
			_ = p.store.CompletePhase(ctx, phase.ID, result)
		}
		out.Result.Phases = append(out.Result.Phases, *result)
		return fnErr
	}

	fail := func(err error) (*Output, error) {
		if p.store != nil && run != nil {
			p.setStatus(ctx, run, model.RunStatusFailed)
		}
		return nil, err
	}

	// Filter.
	if err := trackPhase("filter", func() (int64, error) {
		filter, err := p.buildFilter()
		if err != nil {
			return 0, err
		}
		out.Flood = filter.Apply(complaints)
		out.Result.FloodComplaints = int64(len(out.Flood))
		if p.metrics != nil {
			p.metrics.ComplaintsFiltered.Add(float64(len(out.Flood)))
		}
		return int64(len(out.Flood)), nil
	}); err != nil {
		return fail(err)
	}

	// Spatial join.
	if err := trackPhase("join", func() (int64, error) {
		idx := spatial.NewIndex(tracts)
		jr, err := Join(ctx, out.Flood, idx)
		if err != nil {
			return 0, err
		}
		out.Joined = jr.Joined
		out.Result.Joined = jr.Assigned
		out.Result.Unassigned = jr.Unassigned
		if p.metrics != nil {
			p.metrics.ComplaintsJoined.Add(float64(jr.Assigned))
			p.metrics.ComplaintsUnmatched.Add(float64(jr.Unassigned))
		}
		return jr.Assigned, nil
	}); err != nil {
		return fail(err)
	}

	// Aggregate.
	if err := trackPhase("aggregate", func() (int64, error) {
		out.Summaries = Aggregate(out.Joined, tracts)
		return int64(len(out.Summaries)), nil
	}); err != nil {
		return fail(err)
	}

	// Analyze.
	if err := trackPhase("analyze", func() (int64, error) {
		res, err := analysis.Run(out.Summaries)
		if err != nil {
			return 0, err
		}
		out.Analysis = res
		return int64(len(res.Descriptives)), nil
	}); err != nil {
		return fail(err)
	}

	// Write result files.
	if err := trackPhase("write_results", func() (int64, error) {
		return p.writeResults(ctx, out, tracts)
	}); err != nil {
		return fail(err)
	}

	if p.store != nil && run != nil {
		if err := p.store.SaveSummaries(ctx, run.ID, out.Summaries); err != nil {
			log.Warn("pipeline: failed to save summaries", zap.Error(err))
		}
		if err := p.store.UpdateRunResult(ctx, run.ID, out.Result); err != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(err))
		}
	}

	log.Info("pipeline: run complete",
		zap.String("run_id", out.RunID),
		zap.Int64("flood_complaints", out.Result.FloodComplaints),
		zap.Int64("joined", out.Result.Joined),
		zap.Int64("unassigned", out.Result.Unassigned),
	)
	return out, nil
}

func (p *Pipeline) buildFilter() (*Filter, error) {
	if p.cfg.Filter.KeywordsFile != "" {
		return NewFilterFromFile(p.cfg.Filter.KeywordsFile, p.cfg.Filter.Year)
	}
	keywords := p.cfg.Filter.Keywords
	if len(keywords) == 0 {
		keywords = config.DefaultKeywords
	}
	return NewFilter(keywords, p.cfg.Filter.Year), nil
}

func (p *Pipeline) setStatus(ctx context.Context, run *model.Run, status model.RunStatus) {
	if err := p.store.UpdateRunStatus(ctx, run.ID, status); err != nil {
		zap.L().Warn("pipeline: failed to update status", zap.Error(err))
	}
}

// writeResults writes every result file of a run and returns how many
// files were written.
func (p *Pipeline) writeResults(ctx context.Context, out *Output, tracts []*model.Tract) (int64, error) {
	dir := p.cfg.Pipeline.ResultsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "pipeline: create results dir %s", dir)
	}

	var written int64
	write := func(name string, fn func(f *os.File) error) error {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return eris.Wrapf(err, "pipeline: create %s", name)
		}
		defer f.Close()
		if err := fn(f); err != nil {
			return err
		}
		written++
		return nil
	}

	if err := write("flood_complaints.csv", func(f *os.File) error {
		return ingest.WriteComplaintsCSV(f, out.Flood)
	}); err != nil {
		return written, err
	}
	if err := write("joined_complaints.csv", func(f *os.File) error {
		return ingest.WriteJoinedCSV(f, out.Joined)
	}); err != nil {
		return written, err
	}
	if err := write("tract_summaries.csv", func(f *os.File) error {
		return WriteSummariesCSV(f, out.Summaries)
	}); err != nil {
		return written, err
	}
	if err := write("tract_summaries.geojson", func(f *os.File) error {
		return WriteSummariesGeoJSON(f, out.Summaries, tracts)
	}); err != nil {
		return written, err
	}
	if err := write("descriptive_statistics.csv", func(f *os.File) error {
		return analysis.WriteDescriptivesCSV(f, out.Analysis.Descriptives)
	}); err != nil {
		return written, err
	}
	if out.Analysis.Correlations != nil {
		if err := write("correlation_matrix.csv", func(f *os.File) error {
			return analysis.WriteCorrelationsCSV(f, out.Analysis.Correlations)
		}); err != nil {
			return written, err
		}
	}
	if out.Analysis.Regression != nil {
		if err := write("ols_regression_results.txt", func(f *os.File) error {
			return analysis.WriteRegressionText(f, out.Analysis.Regression)
		}); err != nil {
			return written, err
		}
	}
	if err := write("hotspots.csv", func(f *os.File) error {
		return analysis.WriteHotspotsCSV(f, out.Analysis.Hotspots)
	}); err != nil {
		return written, err
	}
	if err := write("analysis_summary.md", func(f *os.File) error {
		return p.reporter.Write(ctx, f, ReportInput{
			Year:       p.cfg.Filter.Year,
			Total:      out.Result.TotalComplaints,
			Flood:      out.Result.FloodComplaints,
			Unassigned: out.Result.Unassigned,
			Result:     out.Analysis,
		})
	}); err != nil {
		return written, err
	}

	return written, nil
}
