package pipeline

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urbansignals/floodwatch/internal/model"
)

// WriteSummariesGeoJSON joins summary rows back to tract geometries and
// writes a FeatureCollection for the map renderers. Tracts without
// geometry are skipped.
func WriteSummariesGeoJSON(w io.Writer, summaries []model.TractSummary, tracts []*model.Tract) error {
	byGEOID := make(map[string]*model.Tract, len(tracts))
	for _, t := range tracts {
		byGEOID[t.GEOID] = t
	}

	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(summaries))}
	for _, s := range summaries {
		t, ok := byGEOID[s.GEOID]
		if !ok || t.Geometry == nil {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.GEOID,
			Geometry: t.Geometry,
			Properties: map[string]interface{}{
				"GEOID":                   s.GEOID,
				"NAME":                    s.Name,
				"borough":                 s.Borough,
				"population":              s.Population,
				"complaint_count":         s.ComplaintCount,
				"complaint_rate":          s.Rate,
				"complaint_rate_per_1000": s.RatePer1000,
				"rate_defined":            s.RateDefined,
				"median_income":           s.Demo.MedianIncome,
				"pct_poverty":             s.Demo.PctPoverty,
			},
		})
	}

	if err := json.NewEncoder(w).Encode(&fc); err != nil {
		return eris.Wrap(err, "pipeline: write summaries geojson")
	}
	return nil
}
