package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const complaintCSV = `unique_key,created_date,closed_date,agency,complaint_type,descriptor,status,incident_zip,incident_address,borough,latitude,longitude
45001,2019-06-01T10:30:00,2019-06-03T09:00:00,DEP,Sewer Backup,Heavy Flow,Closed,11201,100 Court St,BROOKLYN,40.6928,-73.9903
45002,2019-06-02T08:00:00,,DEP,Street Flooding,,Open,10001,350 5th Ave,MANHATTAN,40.7484,-73.9857
45003,2019-06-03T12:00:00,,NYPD,Noise Complaint,,Open,10001,1 Main St,MANHATTAN,,
45004,not-a-date,,DEP,Flooding,,Open,10002,2 Main St,MANHATTAN,40.7,-73.99
45005,2019-06-05T12:00:00,,DEP,Flooding,,Open,10002,3 Main St,MANHATTAN,bad,-73.99
`

func TestReadComplaints(t *testing.T) {
	complaints, stats, err := ReadComplaints(context.Background(), strings.NewReader(complaintCSV))
	require.NoError(t, err)

	assert.Len(t, complaints, 2)
	assert.Equal(t, int64(5), stats.Rows)
	assert.Equal(t, int64(1), stats.NoLocation)
	assert.Equal(t, int64(1), stats.BadDate)
	assert.Equal(t, int64(1), stats.BadLocation)

	first := complaints[0]
	assert.Equal(t, int64(45001), first.UniqueKey)
	assert.Equal(t, "Sewer Backup", first.ComplaintType)
	assert.Equal(t, 2019, first.CreatedDate.Year())
	require.NotNil(t, first.ClosedDate)
	assert.Equal(t, 3, first.ClosedDate.Day())
	assert.InDelta(t, 40.6928, first.Latitude, 1e-9)

	assert.Nil(t, complaints[1].ClosedDate)
}

func TestReadComplaintsTitleCaseHeader(t *testing.T) {
	csvData := `Unique Key,Created Date,Agency,Complaint Type,Status,Borough,Latitude,Longitude
1,06/15/2019 02:30:00 PM,DEP,Basement Flooding,Open,QUEENS,40.73,-73.82
`
	complaints, _, err := ReadComplaints(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, complaints, 1)
	assert.Equal(t, "Basement Flooding", complaints[0].ComplaintType)
	assert.Equal(t, 14, complaints[0].CreatedDate.Hour())
	assert.Equal(t, 15, complaints[0].CreatedDate.Day())
}

func TestParseComplaintDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"iso datetime", "2019-06-01T10:30:00", false},
		{"space datetime", "2019-06-01 10:30:00", false},
		{"us format", "06/01/2019 10:30:00 AM", false},
		{"date only", "2019-06-01", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseComplaintDate(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteComplaintsRoundTrip(t *testing.T) {
	complaints, _, err := ReadComplaints(context.Background(), strings.NewReader(complaintCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteComplaintsCSV(&buf, complaints))

	back, stats, err := ReadComplaints(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.NoLocation+stats.BadDate+stats.BadKey+stats.BadLocation)
	require.Len(t, back, len(complaints))
	assert.Equal(t, complaints[0].UniqueKey, back[0].UniqueKey)
	assert.Equal(t, complaints[0].ComplaintType, back[0].ComplaintType)
}
