package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTractSummary(t *testing.T) {
	tract := &Tract{
		GEOID:      "36061018700",
		Name:       "Census Tract 187",
		Borough:    "Manhattan",
		Population: 1000,
		Demo:       Demographics{MedianIncome: 85000},
	}

	s := NewTractSummary(tract, 5)

	assert.Equal(t, "36061018700", s.GEOID)
	assert.Equal(t, int64(5), s.ComplaintCount)
	assert.True(t, s.RateDefined)
	assert.Equal(t, 0.005, s.Rate, "rate must be count/population exactly")
	assert.Equal(t, 5.0, s.RatePer1000)
	assert.Equal(t, 85000.0, s.Demo.MedianIncome)
}

func TestNewTractSummary_ZeroPopulation(t *testing.T) {
	tract := &Tract{GEOID: "36061000100", Population: 0}

	s := NewTractSummary(tract, 12)

	assert.False(t, s.RateDefined, "rate is undefined for zero population")
	assert.Zero(t, s.Rate)
	assert.Equal(t, int64(12), s.ComplaintCount, "count is kept even when rate is undefined")
}

func TestNewTractSummary_ZeroComplaints(t *testing.T) {
	tract := &Tract{GEOID: "36047000200", Population: 4200}

	s := NewTractSummary(tract, 0)

	assert.True(t, s.RateDefined)
	assert.Zero(t, s.Rate)
	assert.Zero(t, s.ComplaintCount)
}

func TestComplaintHasLocation(t *testing.T) {
	c := Complaint{Latitude: 40.70, Longitude: -73.99}
	assert.True(t, c.HasLocation())

	assert.False(t, Complaint{}.HasLocation())
}

func TestJoinedComplaintAssigned(t *testing.T) {
	j := JoinedComplaint{
		Complaint:  Complaint{UniqueKey: 1, CreatedDate: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)},
		TractGEOID: "36061018700",
	}
	assert.True(t, j.Assigned())
	assert.False(t, JoinedComplaint{}.Assigned())
}
