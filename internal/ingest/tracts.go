package ingest

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/model"
)

// boroughByCounty maps NYC county FIPS codes to borough names.
var boroughByCounty = map[string]string{
	"005": "Bronx",
	"047": "Brooklyn",
	"061": "Manhattan",
	"081": "Queens",
	"085": "Staten Island",
}

// BoroughForCounty returns the borough name for an NYC county FIPS code,
// or "" for counties outside the city.
func BoroughForCounty(countyFIPS string) string {
	return boroughByCounty[countyFIPS]
}

func propString(props map[string]interface{}, names ...string) string {
	for _, name := range names {
		for k, v := range props {
			if !strings.EqualFold(k, name) {
				continue
			}
			switch t := v.(type) {
			case string:
				return strings.TrimSpace(t)
			case float64:
				return strconv.FormatFloat(t, 'f', -1, 64)
			case json.Number:
				return t.String()
			}
		}
	}
	return ""
}

func propFloat(props map[string]interface{}, names ...string) float64 {
	s := propString(props, names...)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// asMultiPolygon normalizes a feature geometry. Tract files mix Polygon
// and MultiPolygon features even within one collection.
func asMultiPolygon(g geom.T) (*geom.MultiPolygon, error) {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(t); err != nil {
			return nil, eris.Wrap(err, "ingest: convert polygon")
		}
		return mp, nil
	default:
		return nil, eris.Errorf("ingest: unsupported geometry type %T", g)
	}
}

// ReadTractsGeoJSON parses a census tract FeatureCollection. Each feature
// needs a GEOID property and polygonal geometry; demographic attributes
// are picked up when present so a pre-joined file works without a
// separate attribute table.
func ReadTractsGeoJSON(r io.Reader) ([]*model.Tract, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read tract geojson")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrap(err, "ingest: parse tract geojson")
	}

	tracts := make([]*model.Tract, 0, len(fc.Features))
	for i, feat := range fc.Features {
		geoid := propString(feat.Properties, "GEOID", "geoid10", "geoid20", "ct2020", "boroct2020")
		if geoid == "" {
			zap.L().Warn("ingest: tract feature without GEOID", zap.Int("feature", i))
			continue
		}
		if feat.Geometry == nil {
			zap.L().Warn("ingest: tract feature without geometry", zap.String("geoid", geoid))
			continue
		}
		mp, err := asMultiPolygon(feat.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: tract %s", geoid)
		}

		t := &model.Tract{
			GEOID:      geoid,
			TractCE:    propString(feat.Properties, "TRACTCE", "ct2020"),
			StateFIPS:  propString(feat.Properties, "STATEFP"),
			CountyFIPS: propString(feat.Properties, "COUNTYFP"),
			Name:       propString(feat.Properties, "NAME", "ntaname"),
			Borough:    propString(feat.Properties, "borough", "boro_name", "boroname"),
			Population: int64(propFloat(feat.Properties, "population", "pop", "total_population")),
			Demo: model.Demographics{
				MedianIncome:     propFloat(feat.Properties, "median_income"),
				PctCollege:       propFloat(feat.Properties, "pct_college"),
				PctPoverty:       propFloat(feat.Properties, "pct_poverty"),
				PctOwnerOccupied: propFloat(feat.Properties, "pct_owner_occupied"),
				PctMinority:      propFloat(feat.Properties, "pct_minority"),
			},
			Geometry: mp,
		}
		if t.Borough == "" {
			t.Borough = BoroughForCounty(t.CountyFIPS)
		}
		tracts = append(tracts, t)
	}

	sort.Slice(tracts, func(i, j int) bool { return tracts[i].GEOID < tracts[j].GEOID })
	return tracts, nil
}

// LoadTractsGeoJSON reads a tract FeatureCollection from disk.
func LoadTractsGeoJSON(path string) ([]*model.Tract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadTractsGeoJSON(f)
}

// WriteTractsGeoJSON writes tracts back out as a FeatureCollection with
// the demographic attributes inlined as properties. Output order follows
// the input slice.
func WriteTractsGeoJSON(w io.Writer, tracts []*model.Tract) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(tracts))}
	for _, t := range tracts {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       t.GEOID,
			Geometry: t.Geometry,
			Properties: map[string]interface{}{
				"GEOID":              t.GEOID,
				"NAME":               t.Name,
				"borough":            t.Borough,
				"population":         t.Population,
				"median_income":      t.Demo.MedianIncome,
				"pct_college":        t.Demo.PctCollege,
				"pct_poverty":        t.Demo.PctPoverty,
				"pct_owner_occupied": t.Demo.PctOwnerOccupied,
				"pct_minority":       t.Demo.PctMinority,
			},
		})
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(&fc); err != nil {
		return eris.Wrap(err, "ingest: write tract geojson")
	}
	return nil
}
