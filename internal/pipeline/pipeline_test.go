package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbansignals/floodwatch/internal/config"
	"github.com/urbansignals/floodwatch/internal/ingest"
	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/internal/observability"
	"github.com/urbansignals/floodwatch/internal/spatial"
	"github.com/urbansignals/floodwatch/internal/store"
)

// squareTract builds a tract covering [minLng,minLng+1]x[minLat,minLat+1].
func squareTract(geoid string, minLng, minLat float64, pop int64) *model.Tract {
	flat := []float64{
		minLng, minLat,
		minLng + 1, minLat,
		minLng + 1, minLat + 1,
		minLng, minLat + 1,
		minLng, minLat,
	}
	return &model.Tract{
		GEOID:      geoid,
		Population: pop,
		Geometry:   geom.NewMultiPolygonFlat(geom.XY, flat, [][]int{{len(flat)}}),
	}
}

func floodComplaint(key int64, lng, lat float64) model.Complaint {
	return model.Complaint{
		UniqueKey:     key,
		ComplaintType: "Street Flooding",
		CreatedDate:   time.Date(2019, time.July, 1, 0, 0, 0, 0, time.UTC),
		Longitude:     lng,
		Latitude:      lat,
	}
}

func TestJoinAssignsAndCounts(t *testing.T) {
	tracts := []*model.Tract{
		squareTract("36047000100", 0, 0, 1000),
		squareTract("36047000200", 2, 0, 1000),
	}
	idx := spatial.NewIndex(tracts)

	complaints := []model.Complaint{
		floodComplaint(1, 0.5, 0.5),
		floodComplaint(2, 2.5, 0.5),
		floodComplaint(3, 10, 10), // outside all tracts
	}

	jr, err := Join(context.Background(), complaints, idx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), jr.Assigned)
	assert.Equal(t, int64(1), jr.Unassigned)

	require.Len(t, jr.Joined, 3)
	assert.Equal(t, "36047000100", jr.Joined[0].TractGEOID)
	assert.Equal(t, "36047000200", jr.Joined[1].TractGEOID)
	assert.Equal(t, "", jr.Joined[2].TractGEOID)
	assert.False(t, jr.Joined[2].Assigned())
}

func TestJoinEmptyInput(t *testing.T) {
	idx := spatial.NewIndex(nil)
	jr, err := Join(context.Background(), nil, idx)
	require.NoError(t, err)
	assert.Empty(t, jr.Joined)
}

func TestAggregateRates(t *testing.T) {
	tracts := []*model.Tract{
		squareTract("b", 0, 0, 1000),
		squareTract("a", 2, 0, 500),
		squareTract("zero", 4, 0, 0),
	}

	joined := make([]model.JoinedComplaint, 0, 6)
	for i := 0; i < 5; i++ {
		joined = append(joined, model.JoinedComplaint{
			Complaint:  floodComplaint(int64(i), 0.5, 0.5),
			TractGEOID: "b",
		})
	}
	joined = append(joined, model.JoinedComplaint{
		Complaint:  floodComplaint(99, 10, 10),
		TractGEOID: "", // unassigned rows never count
	})

	summaries := Aggregate(joined, tracts)
	require.Len(t, summaries, 3)

	// Sorted by GEOID; zero-count tracts still present.
	assert.Equal(t, "a", summaries[0].GEOID)
	assert.Equal(t, int64(0), summaries[0].ComplaintCount)
	assert.True(t, summaries[0].RateDefined)

	assert.Equal(t, "b", summaries[1].GEOID)
	assert.Equal(t, int64(5), summaries[1].ComplaintCount)
	assert.InDelta(t, 0.005, summaries[1].Rate, 1e-15)
	assert.InDelta(t, 5.0, summaries[1].RatePer1000, 1e-12)

	assert.Equal(t, "zero", summaries[2].GEOID)
	assert.False(t, summaries[2].RateDefined)
	assert.Equal(t, int64(1), func() int64 {
		var undefined int64
		for _, s := range summaries {
			if !s.RateDefined {
				undefined++
			}
		}
		return undefined
	}())
}

func TestSummariesCSVRoundTrip(t *testing.T) {
	tracts := []*model.Tract{
		squareTract("36047000100", 0, 0, 1000),
		squareTract("36047000200", 2, 0, 0),
	}
	tracts[0].Demo = model.Demographics{MedianIncome: 85000, PctCollege: 0.4}
	in := Aggregate([]model.JoinedComplaint{
		{Complaint: floodComplaint(1, 0.5, 0.5), TractGEOID: "36047000100"},
	}, tracts)

	var buf bytes.Buffer
	require.NoError(t, WriteSummariesCSV(&buf, in))

	out, err := ReadSummariesCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadSummariesCSVEmpty(t *testing.T) {
	_, err := ReadSummariesCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Filter: config.FilterConfig{
			Year:     2019,
			Keywords: config.DefaultKeywords,
		},
		Pipeline: config.PipelineConfig{
			DataDir:    filepath.Join(dir, "data"),
			FiguresDir: filepath.Join(dir, "figures"),
			ResultsDir: filepath.Join(dir, "results"),
			MapsDir:    filepath.Join(dir, "maps"),
		},
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	tracts := ingest.SampleTracts(40)
	complaints := ingest.SampleComplaints(3000, 2019)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	defer st.Close()

	p := New(cfg, st, observability.NewMetricsForTesting(), nil)
	out, err := p.Run(context.Background(), complaints, tracts)
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, int64(3000), out.Result.TotalComplaints)
	assert.Greater(t, out.Result.FloodComplaints, int64(0))
	assert.Len(t, out.Summaries, 40)
	assert.NotNil(t, out.Analysis)

	// Run record persisted with result.
	run, err := st.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, out.Result.FloodComplaints, run.Result.FloodComplaints)

	stored, err := st.GetSummaries(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, 40)

	// Result files written.
	for _, name := range []string{
		"flood_complaints.csv", "joined_complaints.csv", "tract_summaries.csv",
		"tract_summaries.geojson", "descriptive_statistics.csv", "hotspots.csv",
		"analysis_summary.md",
	} {
		_, err := os.Stat(filepath.Join(cfg.Pipeline.ResultsDir, name))
		assert.NoError(t, err, name)
	}
}

func TestPipelineDeterministic(t *testing.T) {
	tracts := ingest.SampleTracts(40)
	complaints := ingest.SampleComplaints(3000, 2019)

	run := func() []model.TractSummary {
		cfg := testConfig(t)
		p := New(cfg, nil, nil, nil)
		out, err := p.Run(context.Background(), complaints, tracts)
		require.NoError(t, err)
		return out.Summaries
	}

	a := run()
	b := run()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].GEOID, b[i].GEOID)
		assert.Equal(t, a[i].ComplaintCount, b[i].ComplaintCount)
		assert.Equal(t, a[i].Rate, b[i].Rate)
	}
}

func TestPipelineNoStore(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, nil, nil, nil)

	out, err := p.Run(context.Background(), ingest.SampleComplaints(500, 2019), ingest.SampleTracts(20))
	require.NoError(t, err)
	assert.Empty(t, out.RunID)
	assert.Len(t, out.Summaries, 20)
}

func TestReportContainsSections(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, nil, nil, nil)
	_, err := p.Run(context.Background(), ingest.SampleComplaints(3000, 2019), ingest.SampleTracts(40))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.Pipeline.ResultsDir, "analysis_summary.md"))
	require.NoError(t, err)
	report := string(raw)

	assert.Contains(t, report, "# NYC Flood-Related 311 Complaints Analysis Summary")
	assert.Contains(t, report, "## Key Findings")
	assert.Contains(t, report, "## Conclusions")
	assert.Contains(t, report, "Total flood-related complaints")
}
