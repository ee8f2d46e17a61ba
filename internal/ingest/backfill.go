package ingest

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/pkg/geocode"
)

// BackfillCoordinates geocodes complaints that carry an incident address
// but no coordinates, writing resolved points back in place. Returns how
// many complaints gained a location. Complaints with neither coordinates
// nor an address are left untouched.
func BackfillCoordinates(ctx context.Context, gc geocode.Client, complaints []model.Complaint) (int, error) {
	var idx []int
	var addrs []geocode.Address
	for i, c := range complaints {
		if c.HasLocation() || c.IncidentAddress == "" {
			continue
		}
		idx = append(idx, i)
		addrs = append(addrs, geocode.Address{
			ID:     strconv.Itoa(i),
			Street: c.IncidentAddress,
			City:   c.Borough,
			Zip:    c.IncidentZip,
		})
	}
	if len(addrs) == 0 {
		return 0, nil
	}

	matched := 0
	for start := 0; start < len(addrs); start += geocode.BatchLimit {
		end := start + geocode.BatchLimit
		if end > len(addrs) {
			end = len(addrs)
		}
		results, err := gc.BatchGeocode(ctx, addrs[start:end])
		if err != nil {
			return matched, err
		}
		for j, r := range results {
			if !r.Matched {
				continue
			}
			c := &complaints[idx[start+j]]
			c.Latitude = r.Latitude
			c.Longitude = r.Longitude
			matched++
		}
	}

	zap.L().Info("backfilled complaint coordinates",
		zap.Int("candidates", len(addrs)),
		zap.Int("matched", matched))
	return matched, nil
}
