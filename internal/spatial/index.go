package spatial

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/model"
)

// defaultGridSize is the number of grid cells per axis. NYC has ~2,300
// tracts; a 64x64 grid keeps candidate lists to a handful of tracts per
// cell at city scale.
const defaultGridSize = 64

// Index answers point-in-tract queries over a fixed tract set. It lays a
// uniform grid over the combined bounding box and buckets each tract into
// every cell its bounding box touches, so a lookup only tests the tracts
// sharing the point's cell.
type Index struct {
	tracts []*model.Tract

	minX, minY   float64
	cellW, cellH float64
	gridSize     int
	cells        map[int][]*model.Tract
}

// NewIndex builds an index over the given tracts. Tracts without geometry
// are skipped. Candidate lists are sorted by GEOID so that boundary ties
// resolve deterministically to the smallest GEOID.
func NewIndex(tracts []*model.Tract) *Index {
	idx := &Index{
		gridSize: defaultGridSize,
		cells:    make(map[int][]*model.Tract),
	}

	var skipped int
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, t := range tracts {
		b := t.Bounds()
		if b == nil {
			skipped++
			continue
		}
		idx.tracts = append(idx.tracts, t)
		minX = math.Min(minX, b.Min(0))
		minY = math.Min(minY, b.Min(1))
		maxX = math.Max(maxX, b.Max(0))
		maxY = math.Max(maxY, b.Max(1))
	}
	if skipped > 0 {
		zap.L().Warn("spatial: tracts without geometry skipped", zap.Int("skipped", skipped))
	}
	if len(idx.tracts) == 0 {
		return idx
	}

	sort.Slice(idx.tracts, func(i, j int) bool { return idx.tracts[i].GEOID < idx.tracts[j].GEOID })

	idx.minX, idx.minY = minX, minY
	idx.cellW = (maxX - minX) / float64(idx.gridSize)
	idx.cellH = (maxY - minY) / float64(idx.gridSize)
	// Degenerate extents (single tract, zero-width bbox) get unit cells.
	if idx.cellW == 0 {
		idx.cellW = 1
	}
	if idx.cellH == 0 {
		idx.cellH = 1
	}

	for _, t := range idx.tracts {
		b := t.Bounds()
		c0, r0 := idx.cellAt(b.Min(0), b.Min(1))
		c1, r1 := idx.cellAt(b.Max(0), b.Max(1))
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				key := r*idx.gridSize + c
				idx.cells[key] = append(idx.cells[key], t)
			}
		}
	}

	return idx
}

// Len returns the number of indexed tracts.
func (idx *Index) Len() int { return len(idx.tracts) }

// Tracts returns the indexed tracts in GEOID order.
func (idx *Index) Tracts() []*model.Tract { return idx.tracts }

func (idx *Index) cellAt(x, y float64) (col, row int) {
	col = int((x - idx.minX) / idx.cellW)
	row = int((y - idx.minY) / idx.cellH)
	if col < 0 {
		col = 0
	}
	if col >= idx.gridSize {
		col = idx.gridSize - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= idx.gridSize {
		row = idx.gridSize - 1
	}
	return col, row
}

// Locate returns the tract containing the point, or nil when the point
// falls outside every tract. Candidates are tested in GEOID order, so a
// point on a shared boundary always resolves to the same tract.
func (idx *Index) Locate(lng, lat float64) *model.Tract {
	if len(idx.tracts) == 0 {
		return nil
	}

	col, row := idx.cellAt(lng, lat)
	for _, t := range idx.cells[row*idx.gridSize+col] {
		if !boundsContain(t.Bounds(), lng, lat) {
			continue
		}
		if Contains(t.Geometry, lng, lat) {
			return t
		}
	}
	return nil
}
