package ingest

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/fetcher"
	"github.com/urbansignals/floodwatch/internal/model"
)

// DemographicRow is one tract's attribute record from a demographics table.
type DemographicRow struct {
	GEOID      string
	Population int64
	Demo       model.Demographics
}

func parseDemographicRow(row []string, idx map[string]int) (DemographicRow, bool) {
	geoid := field(row, idx, "geoid", "geo_id", "tract_id")
	if geoid == "" {
		return DemographicRow{}, false
	}
	num := func(names ...string) float64 {
		s := field(row, idx, names...)
		if s == "" {
			return 0
		}
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return DemographicRow{
		GEOID:      geoid,
		Population: int64(num("population", "total_population", "pop")),
		Demo: model.Demographics{
			MedianIncome:     num("median_income", "median_household_income"),
			PctCollege:       num("pct_college", "pct_bachelors"),
			PctPoverty:       num("pct_poverty", "poverty_rate"),
			PctOwnerOccupied: num("pct_owner_occupied", "pct_owner"),
			PctMinority:      num("pct_minority"),
		},
	}, true
}

// ReadDemographicsCSV parses a tract demographics table keyed by GEOID.
// Later rows for the same GEOID overwrite earlier ones.
func ReadDemographicsCSV(ctx context.Context, r io.Reader) (map[string]DemographicRow, error) {
	var idx map[string]int
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		OnHeader:  func(h []string) { idx = fetcher.HeaderIndex(h) },
		TrimSpace: true,
	})

	rows := make(map[string]DemographicRow)
	for row := range rowCh {
		if d, ok := parseDemographicRow(row, idx); ok {
			rows[d.GEOID] = d
		}
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read demographics")
		}
	}
	return rows, nil
}

// LoadDemographics reads a demographics table from disk, dispatching on
// extension: .xlsx workbooks or CSV for anything else.
func LoadDemographics(ctx context.Context, path string) (map[string]DemographicRow, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return loadDemographicsXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadDemographicsCSV(ctx, f)
}

func loadDemographicsXLSX(path string) (map[string]DemographicRow, error) {
	var idx map[string]int
	rows := make(map[string]DemographicRow)
	data, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
		OnHeader: func(h []string) { idx = fetcher.HeaderIndex(h) },
		SkipRows: 1,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read demographics workbook")
	}
	for _, row := range data {
		if d, ok := parseDemographicRow(row, idx); ok {
			rows[d.GEOID] = d
		}
	}
	return rows, nil
}

// ApplyDemographics merges an attribute table into tract records by GEOID
// and returns how many tracts matched. Tracts without a matching row keep
// zero values and surface later as undefined rates.
func ApplyDemographics(tracts []*model.Tract, rows map[string]DemographicRow) int {
	var matched int
	for _, t := range tracts {
		d, ok := rows[t.GEOID]
		if !ok {
			continue
		}
		t.Population = d.Population
		t.Demo = d.Demo
		matched++
	}
	if matched < len(tracts) {
		zap.L().Warn("ingest: tracts missing demographic attributes",
			zap.Int("tracts", len(tracts)),
			zap.Int("matched", matched),
		)
	}
	return matched
}
