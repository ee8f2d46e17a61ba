// Package spatial implements the in-process point-in-polygon join between
// complaint points and census tract polygons.
package spatial

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
)

// Contains reports whether the MultiPolygon contains the point at lng/lat.
// A point on a polygon boundary counts as contained; census tracts partition
// the city, so a boundary point belongs to some tract rather than none.
// Points strictly inside an interior ring (hole) are not contained.
func Contains(mp *geom.MultiPolygon, lng, lat float64) bool {
	if mp == nil {
		return false
	}
	p := geom.Coord{lng, lat}

	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}

		outer := xy.LocatePointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords())
		if outer == location.Exterior {
			continue
		}
		if outer == location.Boundary {
			return true
		}

		inHole := false
		for j := 1; j < poly.NumLinearRings(); j++ {
			if xy.LocatePointInRing(poly.Layout(), p, poly.LinearRing(j).FlatCoords()) == location.Interior {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}

	return false
}

// boundsContain reports whether b contains the point, treating the edges
// as inclusive. Used as a cheap prefilter before exact containment.
func boundsContain(b *geom.Bounds, lng, lat float64) bool {
	if b == nil {
		return false
	}
	return lng >= b.Min(0) && lng <= b.Max(0) && lat >= b.Min(1) && lat <= b.Max(1)
}
