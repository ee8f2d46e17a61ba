package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/config"
	"github.com/urbansignals/floodwatch/internal/model"
)

// Named tile layers accepted in render.tile_layer; anything else is
// treated as a {z}/{x}/{y} URL template.
var tileLayers = map[string][2]string{
	"osm": {
		"https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		"&copy; OpenStreetMap contributors",
	},
	"cartodbpositron": {
		"https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		"&copy; OpenStreetMap contributors &copy; CARTO",
	},
	"cartodbdark": {
		"https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		"&copy; OpenStreetMap contributors &copy; CARTO",
	},
}

func resolveTileLayer(name string) (url, attribution string) {
	if tl, ok := tileLayers[strings.ToLower(name)]; ok {
		return tl[0], tl[1]
	}
	if name == "" {
		return defaultTileLayer, defaultAttribution
	}
	return name, defaultAttribution
}

// Renderer writes every visual output of a run: PNG charts and a static
// choropleth into the figures directory, interactive maps into the maps
// directory.
type Renderer struct {
	figuresDir string
	mapsDir    string
	cfg        config.RenderConfig
}

func NewRenderer(figuresDir, mapsDir string, cfg config.RenderConfig) *Renderer {
	return &Renderer{figuresDir: figuresDir, mapsDir: mapsDir, cfg: cfg}
}

func (r *Renderer) mapOptions(title string) MapOptions {
	url, attribution := resolveTileLayer(r.cfg.TileLayer)
	return MapOptions{
		Title:       title,
		TileLayer:   url,
		Attribution: attribution,
		ColorScheme: r.cfg.ColorScheme,
		MaxPoints:   r.cfg.MaxPoints,
	}
}

// Figures renders the static outputs. Chart failures on degenerate input
// (no located complaints, a single tract) are logged and skipped so one
// empty chart never fails a run.
func (r *Renderer) Figures(summaries []model.TractSummary, tracts []*model.Tract, flood []model.Complaint, year int) error {
	if err := os.MkdirAll(r.figuresDir, 0o755); err != nil {
		return eris.Wrap(err, "render: create figures dir")
	}

	f, err := os.Create(filepath.Join(r.figuresDir, "complaint_rate_choropleth.svg"))
	if err != nil {
		return eris.Wrap(err, "render: create choropleth svg")
	}
	svgErr := WriteChoroplethSVG(f, summaries, tracts, ChoroplethOptions{
		Title:       fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Rate per 1,000 Residents", year),
		ColorScheme: r.cfg.ColorScheme,
		Metric:      "rate",
	})
	if cerr := f.Close(); svgErr == nil {
		svgErr = cerr
	}
	if svgErr != nil {
		return eris.Wrap(svgErr, "render: choropleth svg")
	}

	charts := []struct {
		name string
		fn   func(path string) error
	}{
		{"rate_vs_income_scatter.png", func(p string) error { return ScatterRateIncome(summaries, year, p) }},
		{"complaint_rate_histogram.png", func(p string) error { return HistogramRates(summaries, year, p) }},
		{"daily_complaints_timeseries.png", func(p string) error { return TimeSeriesDaily(flood, year, p) }},
		{"top_complaint_types.png", func(p string) error { return BarTopComplaintTypes(flood, year, p) }},
	}
	for _, c := range charts {
		if err := c.fn(filepath.Join(r.figuresDir, c.name)); err != nil {
			zap.L().Warn("chart skipped", zap.String("chart", c.name), zap.Error(err))
		}
	}
	return nil
}

// Maps renders the interactive Leaflet pages.
func (r *Renderer) Maps(summaries []model.TractSummary, tracts []*model.Tract, flood []model.Complaint, year int) error {
	if err := os.MkdirAll(r.mapsDir, 0o755); err != nil {
		return eris.Wrap(err, "render: create maps dir")
	}

	pages := []struct {
		name string
		fn   func(f *os.File) error
	}{
		{"choropleth_map.html", func(f *os.File) error {
			return WriteChoroplethMap(f, summaries, tracts, r.mapOptions(
				fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Rate per 1,000 Residents", year)))
		}},
		{"complaint_points_map.html", func(f *os.File) error {
			return WritePointMap(f, flood, r.mapOptions(
				fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Individual Complaints", year)))
		}},
		{"complaint_heatmap.html", func(f *os.File) error {
			return WriteHeatmap(f, flood, r.mapOptions(
				fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Density Heatmap", year)))
		}},
	}
	for _, p := range pages {
		f, err := os.Create(filepath.Join(r.mapsDir, p.name))
		if err != nil {
			return eris.Wrap(err, "render: create map page")
		}
		renderErr := p.fn(f)
		if cerr := f.Close(); renderErr == nil {
			renderErr = cerr
		}
		if renderErr != nil {
			zap.L().Warn("map skipped", zap.String("map", p.name), zap.Error(renderErr))
			os.Remove(filepath.Join(r.mapsDir, p.name))
		}
	}
	return nil
}
