package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/ingest"
	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/internal/pipeline"
)

var renderYear int

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render figures and maps from existing results",
	Long:  "Rebuilds all figures and interactive maps from the result files of an earlier run, without recomputing the analysis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		year := renderYear
		if year == 0 {
			year = cfg.Filter.Year
		}

		summaries, err := readResultSummaries()
		if err != nil {
			return err
		}
		flood, err := readResultComplaints(cmd.Context())
		if err != nil {
			return err
		}
		tracts, err := loadTracts()
		if err != nil {
			return err
		}

		r := buildRenderer(cfg)
		if err := r.Figures(summaries, tracts, flood, year); err != nil {
			return err
		}
		if err := r.Maps(summaries, tracts, flood, year); err != nil {
			return err
		}

		zap.L().Info("render complete",
			zap.String("figures_dir", cfg.Pipeline.FiguresDir),
			zap.String("maps_dir", cfg.Pipeline.MapsDir))
		return nil
	},
}

func readResultSummaries() ([]model.TractSummary, error) {
	path := filepath.Join(cfg.Pipeline.ResultsDir, "tract_summaries.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s (run the pipeline first)", path)
	}
	defer f.Close() //nolint:errcheck
	return pipeline.ReadSummariesCSV(f)
}

func readResultComplaints(ctx context.Context) ([]model.Complaint, error) {
	path := filepath.Join(cfg.Pipeline.ResultsDir, "flood_complaints.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s (run the pipeline first)", path)
	}
	defer f.Close() //nolint:errcheck
	complaints, _, err := ingest.ReadComplaints(ctx, f)
	return complaints, err
}

func init() {
	renderCmd.Flags().IntVar(&renderYear, "year", 0, "complaint year used in figure titles (default from config)")
	rootCmd.AddCommand(renderCmd)
}
