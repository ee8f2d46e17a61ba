package model

import (
	"github.com/twpayne/go-geom"
)

// Demographics holds the socioeconomic attributes reported for a census
// tract. Percentage fields are fractions in [0, 1].
type Demographics struct {
	MedianIncome     float64 `json:"median_income"`
	PctCollege       float64 `json:"pct_college"`
	PctPoverty       float64 `json:"pct_poverty"`
	PctOwnerOccupied float64 `json:"pct_owner_occupied"`
	PctMinority      float64 `json:"pct_minority"`
}

// Tract is a census tract boundary with its demographic attributes.
// Treated as static reference data: loaded once per run, never mutated.
type Tract struct {
	GEOID      string             `json:"geoid"`
	TractCE    string             `json:"tract_ce,omitempty"`
	StateFIPS  string             `json:"state_fips,omitempty"`
	CountyFIPS string             `json:"county_fips,omitempty"`
	Name       string             `json:"name,omitempty"`
	Borough    string             `json:"borough,omitempty"`
	Population int64              `json:"population"`
	Demo       Demographics       `json:"demographics"`
	Geometry   *geom.MultiPolygon `json:"-"`
}

// Bounds returns the bounding box of the tract geometry, or nil when the
// tract has no geometry.
func (t *Tract) Bounds() *geom.Bounds {
	if t.Geometry == nil {
		return nil
	}
	return t.Geometry.Bounds()
}
