package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/pkg/geocode"
)

type stubGeocoder struct {
	byStreet map[string]geocode.Result
	calls    int
}

func (s *stubGeocoder) Geocode(_ context.Context, addr geocode.Address) (*geocode.Result, error) {
	r := s.byStreet[addr.Street]
	return &r, nil
}

func (s *stubGeocoder) BatchGeocode(_ context.Context, addrs []geocode.Address) ([]geocode.Result, error) {
	s.calls++
	out := make([]geocode.Result, len(addrs))
	for i, a := range addrs {
		out[i] = s.byStreet[a.Street]
	}
	return out, nil
}

func TestBackfillCoordinates(t *testing.T) {
	gc := &stubGeocoder{byStreet: map[string]geocode.Result{
		"123 Main St": {Latitude: 40.69, Longitude: -73.99, Quality: "rooftop", Matched: true},
	}}

	complaints := []model.Complaint{
		{UniqueKey: 1, CreatedDate: time.Now(), Latitude: 40.7, Longitude: -73.9},
		{UniqueKey: 2, CreatedDate: time.Now(), IncidentAddress: "123 Main St", Borough: "Brooklyn"},
		{UniqueKey: 3, CreatedDate: time.Now(), IncidentAddress: "456 Unknown Rd", Borough: "Queens"},
		{UniqueKey: 4, CreatedDate: time.Now()},
	}

	matched, err := BackfillCoordinates(context.Background(), gc, complaints)
	require.NoError(t, err)
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, gc.calls)

	assert.Equal(t, 40.7, complaints[0].Latitude, "located complaint untouched")
	assert.Equal(t, 40.69, complaints[1].Latitude)
	assert.Equal(t, -73.99, complaints[1].Longitude)
	assert.False(t, complaints[2].HasLocation(), "unmatched address stays unlocated")
	assert.False(t, complaints[3].HasLocation(), "no address means nothing to resolve")
}

func TestBackfillCoordinatesNoCandidates(t *testing.T) {
	gc := &stubGeocoder{}
	matched, err := BackfillCoordinates(context.Background(), gc, []model.Complaint{
		{UniqueKey: 1, Latitude: 40.7, Longitude: -73.9},
	})
	require.NoError(t, err)
	assert.Zero(t, matched)
	assert.Zero(t, gc.calls, "no batch call without candidates")
}
