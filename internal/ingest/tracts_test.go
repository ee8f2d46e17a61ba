package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tractGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {
        "GEOID": "36047000200",
        "TRACTCE": "000200",
        "COUNTYFP": "047",
        "NAME": "Census Tract 2",
        "population": 3200,
        "median_income": 65000,
        "pct_college": 0.45,
        "pct_poverty": 0.12,
        "pct_owner_occupied": 0.3,
        "pct_minority": 0.6
      },
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-74.0, 40.6], [-73.9, 40.6], [-73.9, 40.7], [-74.0, 40.7], [-74.0, 40.6]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"GEOID": "36005000100", "COUNTYFP": "005", "NAME": "Census Tract 1"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [[[[-73.9, 40.8], [-73.8, 40.8], [-73.8, 40.9], [-73.9, 40.9], [-73.9, 40.8]]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"NAME": "no geoid"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-74.0, 40.6], [-73.9, 40.6], [-73.9, 40.7], [-74.0, 40.7], [-74.0, 40.6]]]
      }
    }
  ]
}`

func TestReadTractsGeoJSON(t *testing.T) {
	tracts, err := ReadTractsGeoJSON(strings.NewReader(tractGeoJSON))
	require.NoError(t, err)
	require.Len(t, tracts, 2)

	// Sorted by GEOID.
	assert.Equal(t, "36005000100", tracts[0].GEOID)
	assert.Equal(t, "36047000200", tracts[1].GEOID)

	bk := tracts[1]
	assert.Equal(t, "Brooklyn", bk.Borough)
	assert.Equal(t, int64(3200), bk.Population)
	assert.InDelta(t, 65000, bk.Demo.MedianIncome, 1e-9)
	assert.InDelta(t, 0.45, bk.Demo.PctCollege, 1e-9)
	require.NotNil(t, bk.Geometry)
	assert.Equal(t, 1, bk.Geometry.NumPolygons())

	// Polygon and MultiPolygon both normalize.
	assert.Equal(t, "Bronx", tracts[0].Borough)
	require.NotNil(t, tracts[0].Geometry)
}

func TestWriteTractsGeoJSONRoundTrip(t *testing.T) {
	tracts, err := ReadTractsGeoJSON(strings.NewReader(tractGeoJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTractsGeoJSON(&buf, tracts))

	back, err := ReadTractsGeoJSON(&buf)
	require.NoError(t, err)
	require.Len(t, back, len(tracts))
	assert.Equal(t, tracts[1].GEOID, back[1].GEOID)
	assert.Equal(t, tracts[1].Population, back[1].Population)
	assert.InDelta(t, tracts[1].Demo.PctPoverty, back[1].Demo.PctPoverty, 1e-9)
}

func TestBoroughForCounty(t *testing.T) {
	assert.Equal(t, "Queens", BoroughForCounty("081"))
	assert.Equal(t, "Staten Island", BoroughForCounty("085"))
	assert.Equal(t, "", BoroughForCounty("119"))
}
