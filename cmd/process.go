package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urbansignals/floodwatch/internal/pipeline"
)

var processYear int

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Filter, join, aggregate, and analyze without rendering",
	Long:  "Runs the data stages over fetched inputs and writes the result files, skipping figures, maps, and the run store. Useful for iterating on filter keywords.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if processYear != 0 {
			cfg.Filter.Year = processYear
		}

		complaints, err := loadComplaints(ctx, cfg.Filter.Year)
		if err != nil {
			return err
		}
		tracts, err := loadTracts()
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, nil, nil, buildReporter(cfg))
		out, err := p.Run(ctx, complaints, tracts)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Result)
	},
}

func init() {
	processCmd.Flags().IntVar(&processYear, "year", 0, "complaint year (default from config)")
	rootCmd.AddCommand(processCmd)
}
