// Package ingest loads the pipeline's source data: 311 service requests
// from Socrata CSV exports, census tract boundaries from GeoJSON or TIGER
// shapefiles, and demographic attribute tables.
package ingest

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/fetcher"
	"github.com/urbansignals/floodwatch/internal/model"
)

// complaintDateLayouts covers the formats 311 exports use for created_date
// and closed_date, depending on export vintage.
var complaintDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 03:04:05 PM",
	"2006-01-02",
}

func parseComplaintDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, eris.New("empty date")
	}
	for _, layout := range complaintDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognized date %q", s)
}

// field returns the first matching column from a row. Socrata CSV exports
// use snake_case headers; archive dumps use Title Case.
func field(row []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := fetcher.Field(row, idx, name); v != "" {
			return v
		}
	}
	return ""
}

// ComplaintStats counts rows dropped during parsing.
type ComplaintStats struct {
	Rows        int64
	NoLocation  int64
	BadDate     int64
	BadKey      int64
	BadLocation int64
}

// ReadComplaints parses a 311 CSV export into complaint records. Rows
// without usable coordinates or an unparseable created date are counted
// and skipped, not fatal: city exports always contain a few.
func ReadComplaints(ctx context.Context, r io.Reader) ([]model.Complaint, ComplaintStats, error) {
	var stats ComplaintStats
	var idx map[string]int

	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		OnHeader:  func(h []string) { idx = fetcher.HeaderIndex(h) },
		TrimSpace: true,
	})

	var complaints []model.Complaint
	for row := range rowCh {
		stats.Rows++

		key, err := strconv.ParseInt(field(row, idx, "unique_key", "unique key"), 10, 64)
		if err != nil {
			stats.BadKey++
			continue
		}

		created, err := parseComplaintDate(field(row, idx, "created_date", "created date"))
		if err != nil {
			stats.BadDate++
			continue
		}

		latStr := field(row, idx, "latitude")
		lngStr := field(row, idx, "longitude")
		if latStr == "" || lngStr == "" {
			stats.NoLocation++
			continue
		}
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			stats.BadLocation++
			continue
		}

		c := model.Complaint{
			UniqueKey:       key,
			CreatedDate:     created,
			Agency:          field(row, idx, "agency"),
			ComplaintType:   field(row, idx, "complaint_type", "complaint type"),
			Descriptor:      field(row, idx, "descriptor"),
			Status:          field(row, idx, "status"),
			IncidentZip:     field(row, idx, "incident_zip", "incident zip"),
			IncidentAddress: field(row, idx, "incident_address", "incident address"),
			Borough:         field(row, idx, "borough"),
			Latitude:        lat,
			Longitude:       lng,
		}

		if closedStr := field(row, idx, "closed_date", "closed date"); closedStr != "" {
			if closed, err := parseComplaintDate(closedStr); err == nil {
				c.ClosedDate = &closed
			}
		}

		complaints = append(complaints, c)
	}

	for err := range errCh {
		if err != nil {
			return nil, stats, eris.Wrap(err, "ingest: read complaints")
		}
	}

	dropped := stats.NoLocation + stats.BadDate + stats.BadKey + stats.BadLocation
	if dropped > 0 {
		zap.L().Info("ingest: skipped unusable complaint rows",
			zap.Int64("rows", stats.Rows),
			zap.Int64("no_location", stats.NoLocation),
			zap.Int64("bad_date", stats.BadDate),
			zap.Int64("bad_key", stats.BadKey),
			zap.Int64("bad_location", stats.BadLocation),
		)
	}

	return complaints, stats, nil
}
