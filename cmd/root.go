package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/config"
	"github.com/urbansignals/floodwatch/internal/observability"
	"github.com/urbansignals/floodwatch/internal/store"
)

var (
	cfg     *config.Config
	metrics *observability.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "floodwatch",
	Short: "NYC flood-complaint analysis pipeline",
	Long:  "Fetches 311 service requests and census tract data, joins flood complaints to tracts, and analyzes complaint rates against tract demographics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		metrics = observability.NewMetrics()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the configured run store and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// Canonical locations of the intermediate data files under data_dir.
func complaintsPath(year int) string {
	return filepath.Join(cfg.Pipeline.DataDir, fmt.Sprintf("complaints_%d.csv", year))
}

func tractsPath() string {
	if cfg.Census.TractsPath != "" {
		return cfg.Census.TractsPath
	}
	return filepath.Join(cfg.Pipeline.DataDir, "tracts.geojson")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
