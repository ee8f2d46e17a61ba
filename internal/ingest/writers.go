package ingest

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/urbansignals/floodwatch/internal/model"
)

var complaintHeader = []string{
	"unique_key", "created_date", "closed_date", "agency", "complaint_type",
	"descriptor", "status", "incident_zip", "incident_address", "borough",
	"latitude", "longitude",
}

const complaintDateFormat = "2006-01-02T15:04:05"

// WriteComplaintsCSV writes complaints in the same column layout
// ReadComplaints accepts, so pipeline stages can round-trip through disk.
func WriteComplaintsCSV(w io.Writer, complaints []model.Complaint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(complaintHeader); err != nil {
		return eris.Wrap(err, "ingest: write complaint header")
	}
	for _, c := range complaints {
		closed := ""
		if c.ClosedDate != nil {
			closed = c.ClosedDate.Format(complaintDateFormat)
		}
		row := []string{
			strconv.FormatInt(c.UniqueKey, 10),
			c.CreatedDate.Format(complaintDateFormat),
			closed,
			c.Agency,
			c.ComplaintType,
			c.Descriptor,
			c.Status,
			c.IncidentZip,
			c.IncidentAddress,
			c.Borough,
			strconv.FormatFloat(c.Latitude, 'f', 6, 64),
			strconv.FormatFloat(c.Longitude, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "ingest: write complaint row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "ingest: flush complaints")
	}
	return nil
}

// WriteJoinedCSV writes complaints after tract assignment, appending the
// tract GEOID column. Unassigned complaints carry an empty GEOID.
func WriteJoinedCSV(w io.Writer, joined []model.JoinedComplaint) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, complaintHeader...), "tract_geoid")
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "ingest: write joined header")
	}
	for _, j := range joined {
		closed := ""
		if j.ClosedDate != nil {
			closed = j.ClosedDate.Format(complaintDateFormat)
		}
		row := []string{
			strconv.FormatInt(j.UniqueKey, 10),
			j.CreatedDate.Format(complaintDateFormat),
			closed,
			j.Agency,
			j.ComplaintType,
			j.Descriptor,
			j.Status,
			j.IncidentZip,
			j.IncidentAddress,
			j.Borough,
			strconv.FormatFloat(j.Latitude, 'f', 6, 64),
			strconv.FormatFloat(j.Longitude, 'f', 6, 64),
			j.TractGEOID,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "ingest: write joined row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "ingest: flush joined complaints")
	}
	return nil
}
