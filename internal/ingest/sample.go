package ingest

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/urbansignals/floodwatch/internal/model"
)

// NYC bounding box, approximate.
const (
	sampleMinLat = 40.5
	sampleMaxLat = 40.9
	sampleMinLng = -74.25
	sampleMaxLng = -73.7
)

// sampleSeed fixes the generator so repeated runs produce identical data.
const sampleSeed = 42

var sampleFloodTypes = []string{
	"Sewer Backup", "Clogged Catch Basin", "Flooding", "Street Flooding",
	"Water System", "Basement Flooding", "Standing Water", "Plumbing",
	"Water Leak", "Water Conservation", "Water Quality",
}

var sampleOtherTypes = []string{
	"Noise", "Illegal Parking", "Blocked Driveway", "Dirty Conditions",
	"Rodent", "Damaged Tree", "Building/Use", "Street Condition",
	"Graffiti", "Derelict Vehicle", "Traffic Signal Condition",
}

var sampleStatuses = []string{"Open", "Closed", "Pending", "In Progress"}

var sampleStreets = []string{
	"Main St", "Broadway", "Park Ave", "Lexington Ave", "Madison Ave",
	"5th Ave", "7th Ave", "Canal St", "Houston St", "Delancey St",
}

var sampleBoroughs = []string{"MANHATTAN", "BROOKLYN", "QUEENS", "BRONX", "STATEN ISLAND"}

func sampleRand() *rand.Rand {
	return rand.New(rand.NewPCG(sampleSeed, 0))
}

func pick(r *rand.Rand, vals []string) string {
	return vals[r.IntN(len(vals))]
}

// SampleComplaints generates a deterministic synthetic 311 dataset for a
// given year. Roughly a quarter of records draw from flood-related
// complaint types; coordinates fall inside the NYC bounding box so the
// spatial join has work to do against SampleTracts output.
func SampleComplaints(n int, year int) []model.Complaint {
	r := sampleRand()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)

	complaints := make([]model.Complaint, 0, n)
	for i := 0; i < n; i++ {
		created := start.AddDate(0, 0, r.IntN(days+1))
		closed := created.AddDate(0, 0, r.IntN(31))

		var ctype string
		if r.Float64() < 0.25 {
			ctype = pick(r, sampleFloodTypes)
		} else {
			ctype = pick(r, sampleOtherTypes)
		}

		complaints = append(complaints, model.Complaint{
			UniqueKey:       int64(i + 1),
			CreatedDate:     created,
			ClosedDate:      &closed,
			Agency:          "DEP",
			ComplaintType:   ctype,
			Status:          pick(r, sampleStatuses),
			IncidentZip:     fmt.Sprintf("%d", 10001+r.IntN(11697-10001+1)),
			IncidentAddress: fmt.Sprintf("%d %s", 1+r.IntN(9999), pick(r, sampleStreets)),
			Borough:         pick(r, sampleBoroughs),
			Latitude:        sampleMinLat + r.Float64()*(sampleMaxLat-sampleMinLat),
			Longitude:       sampleMinLng + r.Float64()*(sampleMaxLng-sampleMinLng),
		})
	}
	return complaints
}

// SampleTracts generates a deterministic synthetic tract set: small
// rectangles scattered across the NYC bounding box with random
// demographic attributes. GEOIDs are de-duplicated and output is sorted
// by GEOID.
func SampleTracts(n int) []*model.Tract {
	r := sampleRand()

	seen := make(map[string]bool, n)
	tracts := make([]*model.Tract, 0, n)
	for len(tracts) < n {
		centerLat := sampleMinLat + r.Float64()*(sampleMaxLat-sampleMinLat)
		centerLng := sampleMinLng + r.Float64()*(sampleMaxLng-sampleMinLng)
		size := 0.005 + r.Float64()*0.010

		countyFIPS := pick(r, []string{"061", "005", "047", "081", "085"})
		geoid := fmt.Sprintf("36%s%06d", countyFIPS, 100000+r.IntN(900000))
		if seen[geoid] {
			continue
		}
		seen[geoid] = true

		flat := []float64{
			centerLng - size, centerLat - size,
			centerLng + size, centerLat - size,
			centerLng + size, centerLat + size,
			centerLng - size, centerLat + size,
			centerLng - size, centerLat - size,
		}
		mp := geom.NewMultiPolygonFlat(geom.XY, flat, [][]int{{len(flat)}})

		tracts = append(tracts, &model.Tract{
			GEOID:      geoid,
			TractCE:    fmt.Sprintf("%06d", 1+r.IntN(999)),
			StateFIPS:  "36",
			CountyFIPS: countyFIPS,
			Name:       fmt.Sprintf("Census Tract %d", 1+r.IntN(999)),
			Borough:    BoroughForCounty(countyFIPS),
			Population: int64(1000 + r.IntN(9001)),
			Demo: model.Demographics{
				MedianIncome:     float64(30000 + r.IntN(170001)),
				PctCollege:       0.1 + r.Float64()*0.8,
				PctPoverty:       0.05 + r.Float64()*0.35,
				PctOwnerOccupied: 0.1 + r.Float64()*0.7,
				PctMinority:      0.1 + r.Float64()*0.8,
			},
			Geometry: mp,
		})
	}

	sort.Slice(tracts, func(i, j int) bool { return tracts[i].GEOID < tracts[j].GEOID })
	return tracts
}
