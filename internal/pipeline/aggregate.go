package pipeline

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/urbansignals/floodwatch/internal/model"
)

// Aggregate counts assigned complaints per tract and derives summary rows
// for every tract, including those with zero complaints. Output is sorted
// by GEOID, so identical inputs produce identical files.
func Aggregate(joined []model.JoinedComplaint, tracts []*model.Tract) []model.TractSummary {
	counts := make(map[string]int64, len(tracts))
	for _, j := range joined {
		if j.Assigned() {
			counts[j.TractGEOID]++
		}
	}

	summaries := make([]model.TractSummary, 0, len(tracts))
	for _, t := range tracts {
		summaries = append(summaries, model.NewTractSummary(t, counts[t.GEOID]))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].GEOID < summaries[j].GEOID })
	return summaries
}

// WriteSummariesCSV writes aggregation output rows.
func WriteSummariesCSV(w io.Writer, summaries []model.TractSummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"geoid", "name", "borough", "population", "complaint_count",
		"complaint_rate", "complaint_rate_per_1000", "rate_defined",
		"median_income", "pct_college", "pct_poverty", "pct_owner_occupied", "pct_minority",
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "pipeline: write summaries header")
	}
	for _, s := range summaries {
		rec := []string{
			s.GEOID, s.Name, s.Borough,
			strconv.FormatInt(s.Population, 10),
			strconv.FormatInt(s.ComplaintCount, 10),
			strconv.FormatFloat(s.Rate, 'g', 10, 64),
			strconv.FormatFloat(s.RatePer1000, 'g', 10, 64),
			strconv.FormatBool(s.RateDefined),
			strconv.FormatFloat(s.Demo.MedianIncome, 'g', 10, 64),
			strconv.FormatFloat(s.Demo.PctCollege, 'g', 10, 64),
			strconv.FormatFloat(s.Demo.PctPoverty, 'g', 10, 64),
			strconv.FormatFloat(s.Demo.PctOwnerOccupied, 'g', 10, 64),
			strconv.FormatFloat(s.Demo.PctMinority, 'g', 10, 64),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "pipeline: write summaries row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "pipeline: flush summaries")
}

// ReadSummariesCSV reads rows written by WriteSummariesCSV, for commands
// that render from an earlier run's results instead of recomputing.
func ReadSummariesCSV(r io.Reader) ([]model.TractSummary, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read summaries")
	}
	if len(records) < 1 {
		return nil, eris.New("pipeline: summaries file is empty")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	num := func(rec []string, name string) float64 {
		v, _ := strconv.ParseFloat(get(rec, name), 64)
		return v
	}

	summaries := make([]model.TractSummary, 0, len(records)-1)
	for _, rec := range records[1:] {
		count, err := strconv.ParseInt(get(rec, "complaint_count"), 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: summaries row for %s", get(rec, "geoid"))
		}
		pop, _ := strconv.ParseInt(get(rec, "population"), 10, 64)
		defined, _ := strconv.ParseBool(get(rec, "rate_defined"))
		summaries = append(summaries, model.TractSummary{
			GEOID:          get(rec, "geoid"),
			Name:           get(rec, "name"),
			Borough:        get(rec, "borough"),
			Population:     pop,
			ComplaintCount: count,
			Rate:           num(rec, "complaint_rate"),
			RatePer1000:    num(rec, "complaint_rate_per_1000"),
			RateDefined:    defined,
			Demo: model.Demographics{
				MedianIncome:     num(rec, "median_income"),
				PctCollege:       num(rec, "pct_college"),
				PctPoverty:       num(rec, "pct_poverty"),
				PctOwnerOccupied: num(rec, "pct_owner_occupied"),
				PctMinority:      num(rec, "pct_minority"),
			},
		})
	}
	return summaries, nil
}
