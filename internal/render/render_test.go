package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbansignals/floodwatch/internal/config"
	"github.com/urbansignals/floodwatch/internal/model"
)

func squareTract(geoid string, minLng, minLat, size float64, pop int64) *model.Tract {
	flat := []float64{
		minLng, minLat,
		minLng + size, minLat,
		minLng + size, minLat + size,
		minLng, minLat + size,
		minLng, minLat,
	}
	return &model.Tract{
		GEOID:      geoid,
		Borough:    "Brooklyn",
		Population: pop,
		Demo:       model.Demographics{MedianIncome: 60000},
		Geometry:   geom.NewMultiPolygonFlat(geom.XY, flat, [][]int{{len(flat)}}),
	}
}

func testTractsAndSummaries(t *testing.T) ([]*model.Tract, []model.TractSummary) {
	t.Helper()
	tracts := []*model.Tract{
		squareTract("36047000100", -73.99, 40.70, 0.01, 1000),
		squareTract("36047000200", -73.98, 40.70, 0.01, 2000),
		squareTract("36047000300", -73.97, 40.70, 0.01, 0),
	}
	tracts[1].Demo.MedianIncome = 90000
	summaries := []model.TractSummary{
		model.NewTractSummary(tracts[0], 5),
		model.NewTractSummary(tracts[1], 12),
		model.NewTractSummary(tracts[2], 3),
	}
	return tracts, summaries
}

func testComplaints(n int) []model.Complaint {
	out := make([]model.Complaint, 0, n)
	base := time.Date(2019, 6, 1, 9, 0, 0, 0, time.UTC)
	types := []string{"Sewer Backup (SA)", "Street Flooding (SJ)", "Water Leak"}
	for i := 0; i < n; i++ {
		out = append(out, model.Complaint{
			UniqueKey:     int64(40000000 + i),
			CreatedDate:   base.AddDate(0, 0, i%30),
			ComplaintType: types[i%len(types)],
			Descriptor:    "Heavy Flooding (IJ2)",
			Latitude:      40.701 + float64(i%10)*0.0005,
			Longitude:     -73.985 + float64(i%10)*0.0005,
		})
	}
	return out
}

func TestScaleQuantileBreaks(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	s := NewScale(ylOrRd, vals)

	assert.Len(t, s.Breaks(), len(ylOrRd)-1)
	assert.Equal(t, ylOrRd[0], s.Color(0.5), "below every break gets the lowest class")
	assert.Equal(t, ylOrRd[len(ylOrRd)-1], s.Color(100), "above every break gets the highest class")
}

func TestScaleEmptyValues(t *testing.T) {
	s := NewScale(ylOrRd, nil)
	assert.Equal(t, ylOrRd[len(ylOrRd)-1], s.Color(1), "no breaks means every value maps to the top class")
}

func TestRampSelection(t *testing.T) {
	assert.Equal(t, viridis, Ramp("viridis"))
	assert.Equal(t, ylOrRd, Ramp("ylorrd"))
	assert.Equal(t, ylOrRd, Ramp(""))
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#d9d9d9", hexColor(undefinedColor))
	assert.Equal(t, "#ffffcc", hexColor(ylOrRd[0]))
}

func TestWriteChoroplethSVG(t *testing.T) {
	tracts, summaries := testTractsAndSummaries(t)

	var buf bytes.Buffer
	err := WriteChoroplethSVG(&buf, summaries, tracts, ChoroplethOptions{Title: "Rate Map", Metric: "rate"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Rate Map")
	assert.Contains(t, out, "#d9d9d9", "zero-population tract painted gray")
	assert.Contains(t, out, "36047000100: 5 complaints")
	assert.Contains(t, out, "no population data")
}

func TestWriteChoroplethSVGNoGeometry(t *testing.T) {
	summaries := []model.TractSummary{{GEOID: "36047000100"}}
	err := WriteChoroplethSVG(&bytes.Buffer{}, summaries, []*model.Tract{{GEOID: "36047000100"}}, ChoroplethOptions{})
	assert.Error(t, err)
}

func TestChartsRenderFiles(t *testing.T) {
	dir := t.TempDir()
	_, summaries := testTractsAndSummaries(t)
	complaints := testComplaints(40)

	cases := []struct {
		name string
		fn   func(path string) error
	}{
		{"scatter.png", func(p string) error { return ScatterRateIncome(summaries, 2019, p) }},
		{"hist.png", func(p string) error { return HistogramRates(summaries, 2019, p) }},
		{"series.png", func(p string) error { return TimeSeriesDaily(complaints, 2019, p) }},
		{"bars.png", func(p string) error { return BarTopComplaintTypes(complaints, 2019, p) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			require.NoError(t, tc.fn(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestChartsRejectEmptyInput(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, ScatterRateIncome(nil, 2019, filepath.Join(dir, "s.png")))
	assert.Error(t, HistogramRates(nil, 2019, filepath.Join(dir, "h.png")))
	assert.Error(t, TimeSeriesDaily(nil, 2019, filepath.Join(dir, "t.png")))
	assert.Error(t, BarTopComplaintTypes(nil, 2019, filepath.Join(dir, "b.png")))
}

func TestWriteChoroplethMap(t *testing.T) {
	tracts, summaries := testTractsAndSummaries(t)

	var buf bytes.Buffer
	err := WriteChoroplethMap(&buf, summaries, tracts, MapOptions{Title: "Flood Rates"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "L.geoJSON")
	assert.Contains(t, out, "36047000100")
	assert.Contains(t, out, "Complaints per 1,000")
	assert.Contains(t, out, "No population data")
	assert.Contains(t, out, defaultTileLayer)
}

func TestWritePointMapCapsPoints(t *testing.T) {
	complaints := testComplaints(50)

	var buf bytes.Buffer
	err := WritePointMap(&buf, complaints, MapOptions{Title: "Points", MaxPoints: 10})
	require.NoError(t, err)

	// Each embedded point carries one popup string.
	assert.Equal(t, 10, strings.Count(buf.String(), "Heavy Flooding"), "marker count capped at MaxPoints")
}

func TestWritePointMapSkipsUnlocated(t *testing.T) {
	err := WritePointMap(&bytes.Buffer{}, []model.Complaint{{UniqueKey: 1}}, MapOptions{})
	assert.Error(t, err)
}

func TestWriteHeatmap(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHeatmap(&buf, testComplaints(20), MapOptions{Title: "Heat"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "L.heatLayer")
}

func TestResolveTileLayer(t *testing.T) {
	url, attr := resolveTileLayer("cartodbpositron")
	assert.Contains(t, url, "cartocdn.com")
	assert.Contains(t, attr, "CARTO")

	url, _ = resolveTileLayer("https://example.com/{z}/{x}/{y}.png")
	assert.Equal(t, "https://example.com/{z}/{x}/{y}.png", url)

	url, _ = resolveTileLayer("")
	assert.Equal(t, defaultTileLayer, url)
}

func TestRendererWritesAllOutputs(t *testing.T) {
	figDir := filepath.Join(t.TempDir(), "figures")
	mapDir := filepath.Join(t.TempDir(), "maps")
	tracts, summaries := testTractsAndSummaries(t)
	complaints := testComplaints(60)

	r := NewRenderer(figDir, mapDir, config.RenderConfig{MaxPoints: 100, ColorScheme: "ylorrd", TileLayer: "cartodbpositron"})
	require.NoError(t, r.Figures(summaries, tracts, complaints, 2019))
	require.NoError(t, r.Maps(summaries, tracts, complaints, 2019))

	for _, name := range []string{
		"complaint_rate_choropleth.svg",
		"rate_vs_income_scatter.png",
		"complaint_rate_histogram.png",
		"daily_complaints_timeseries.png",
		"top_complaint_types.png",
	} {
		_, err := os.Stat(filepath.Join(figDir, name))
		assert.NoError(t, err, fmt.Sprintf("figure %s", name))
	}
	for _, name := range []string{
		"choropleth_map.html",
		"complaint_points_map.html",
		"complaint_heatmap.html",
	} {
		_, err := os.Stat(filepath.Join(mapDir, name))
		assert.NoError(t, err, fmt.Sprintf("map %s", name))
	}
}
