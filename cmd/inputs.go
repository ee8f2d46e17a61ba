package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/config"
	"github.com/urbansignals/floodwatch/internal/ingest"
	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/internal/pipeline"
	"github.com/urbansignals/floodwatch/internal/render"
	"github.com/urbansignals/floodwatch/pkg/anthropic"
	"github.com/urbansignals/floodwatch/pkg/geocode"
)

// loadComplaints reads the normalized complaints file written by fetch,
// backfilling coordinates from incident addresses when enabled.
func loadComplaints(ctx context.Context, year int) ([]model.Complaint, error) {
	path := complaintsPath(year)
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s (run fetch first)", path)
	}
	defer f.Close() //nolint:errcheck

	complaints, stats, err := ingest.ReadComplaints(ctx, f)
	if err != nil {
		return nil, err
	}
	zap.L().Info("complaints loaded",
		zap.Int("count", len(complaints)),
		zap.Int64("rows", stats.Rows),
		zap.String("path", path))

	if cfg.Geocode.Enabled {
		gc := geocode.NewClient(geocode.WithRateLimit(cfg.Geocode.RateLimit))
		if _, err := ingest.BackfillCoordinates(ctx, gc, complaints); err != nil {
			zap.L().Warn("coordinate backfill failed", zap.Error(err))
		}
	}
	return complaints, nil
}

func loadTracts() ([]*model.Tract, error) {
	tracts, err := ingest.LoadTractsGeoJSON(tractsPath())
	if err != nil {
		return nil, eris.Wrapf(err, "load %s (run fetch first)", tractsPath())
	}
	zap.L().Info("tracts loaded", zap.Int("count", len(tracts)))
	return tracts, nil
}

// buildReporter wires the optional narrative model. Without an API key the
// report is tables only.
func buildReporter(c *config.Config) *pipeline.Reporter {
	if c.Anthropic.Key == "" {
		return pipeline.NewReporter(nil, "", 0)
	}
	return pipeline.NewReporter(anthropic.NewClient(c.Anthropic.Key), c.Anthropic.Model, 0)
}

func buildRenderer(c *config.Config) *render.Renderer {
	return render.NewRenderer(c.Pipeline.FiguresDir, c.Pipeline.MapsDir, c.Render)
}
