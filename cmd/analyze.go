package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/analysis"
	"github.com/urbansignals/floodwatch/internal/model"
)

var analyzeRunID string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Recompute the statistical analysis",
	Long:  "Recomputes descriptive statistics, correlations, regression, and hotspots from stored tract summaries (--run) or the latest result files, and rewrites the analysis outputs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			summaries []model.TractSummary
			err       error
		)
		if analyzeRunID != "" {
			st, serr := initStore(ctx)
			if serr != nil {
				return serr
			}
			defer st.Close() //nolint:errcheck
			summaries, err = st.GetSummaries(ctx, analyzeRunID)
		} else {
			summaries, err = readResultSummaries()
		}
		if err != nil {
			return err
		}

		res, err := analysis.Run(summaries)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Pipeline.ResultsDir, 0o755); err != nil {
			return eris.Wrap(err, "create results dir")
		}
		if err := writeAnalysisFile("descriptive_statistics.csv", func(f *os.File) error {
			return analysis.WriteDescriptivesCSV(f, res.Descriptives)
		}); err != nil {
			return err
		}
		if res.Correlations != nil {
			if err := writeAnalysisFile("correlation_matrix.csv", func(f *os.File) error {
				return analysis.WriteCorrelationsCSV(f, res.Correlations)
			}); err != nil {
				return err
			}
		}
		if res.Regression != nil {
			if err := writeAnalysisFile("ols_regression_results.txt", func(f *os.File) error {
				return analysis.WriteRegressionText(f, res.Regression)
			}); err != nil {
				return err
			}
		}
		if err := writeAnalysisFile("hotspots.csv", func(f *os.File) error {
			return analysis.WriteHotspotsCSV(f, res.Hotspots)
		}); err != nil {
			return err
		}

		zap.L().Info("analysis complete",
			zap.Int("tracts", len(summaries)),
			zap.Int("hotspots", len(res.Hotspots)),
			zap.String("results_dir", cfg.Pipeline.ResultsDir))
		return nil
	},
}

func writeAnalysisFile(name string, fn func(f *os.File) error) error {
	f, err := os.Create(filepath.Join(cfg.Pipeline.ResultsDir, name))
	if err != nil {
		return eris.Wrapf(err, "create %s", name)
	}
	writeErr := fn(f)
	if cerr := f.Close(); writeErr == nil {
		writeErr = cerr
	}
	return writeErr
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRunID, "run", "", "recompute from a stored run's summaries")
	rootCmd.AddCommand(analyzeCmd)
}
