package ingest

import (
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/model"
)

// LoadTractsShapefile reads a TIGER/Line census tract shapefile. The DBF
// attribute table supplies the identifiers; demographics come from a
// separate table applied afterwards.
func LoadTractsShapefile(shpPath string) ([]*model.Tract, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	attr := func(names ...string) string {
		for _, name := range names {
			idx, ok := fieldIdx[name]
			if !ok {
				continue
			}
			val := strings.TrimRight(reader.Attribute(idx), "\x00")
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
		return ""
	}

	var tracts []*model.Tract
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		geoid := attr("geoid", "geoid20", "geoid10")
		if geoid == "" {
			skipped++
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		t := &model.Tract{
			GEOID:      geoid,
			TractCE:    attr("tractce", "tractce20", "tractce10"),
			StateFIPS:  attr("statefp", "statefp20", "statefp10"),
			CountyFIPS: attr("countyfp", "countyfp20", "countyfp10"),
			Name:       attr("name", "name20", "name10", "namelsad"),
			Geometry:   mp,
		}
		t.Borough = BoroughForCounty(t.CountyFIPS)
		tracts = append(tracts, t)
	}

	if skipped > 0 {
		zap.L().Debug("ingest: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	sort.Slice(tracts, func(i, j int) bool { return tracts[i].GEOID < tracts[j].GEOID })
	return tracts, nil
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefiles store all rings of all parts in one flat point array with a
// parts offset table.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("ingest: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("ingest: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
