package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansignals/floodwatch/internal/model"
)

const demographicsCSV = `geoid,population,median_income,pct_college,pct_poverty,pct_owner_occupied,pct_minority
36047000200,"3,200",65000,0.45,0.12,0.30,0.60
36005000100,1500,42000,0.22,0.31,0.15,0.85
`

func TestReadDemographicsCSV(t *testing.T) {
	rows, err := ReadDemographicsCSV(context.Background(), strings.NewReader(demographicsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	d := rows["36047000200"]
	assert.Equal(t, int64(3200), d.Population)
	assert.InDelta(t, 65000, d.Demo.MedianIncome, 1e-9)
	assert.InDelta(t, 0.12, d.Demo.PctPoverty, 1e-9)
}

func TestApplyDemographics(t *testing.T) {
	rows, err := ReadDemographicsCSV(context.Background(), strings.NewReader(demographicsCSV))
	require.NoError(t, err)

	tracts := []*model.Tract{
		{GEOID: "36047000200"},
		{GEOID: "36061999999"},
	}
	matched := ApplyDemographics(tracts, rows)
	assert.Equal(t, 1, matched)
	assert.Equal(t, int64(3200), tracts[0].Population)
	assert.InDelta(t, 0.85, rows["36005000100"].Demo.PctMinority, 1e-9)

	// Unmatched tract keeps zeros and will surface as an undefined rate.
	assert.Equal(t, int64(0), tracts[1].Population)
}
