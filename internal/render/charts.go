package render

import (
	"fmt"
	"image/color"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/urbansignals/floodwatch/internal/model"
)

var (
	chartBlue   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	chartOrange = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
)

// ScatterRateIncome plots complaint rate per 1,000 against median household
// income, one point per tract with a defined rate, plus an OLS fit line.
func ScatterRateIncome(summaries []model.TractSummary, year int, path string) error {
	var pts plotter.XYs
	for _, s := range summaries {
		if !s.RateDefined || s.Demo.MedianIncome <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: s.Demo.MedianIncome, Y: s.RatePer1000})
	}
	if len(pts) < 2 {
		return eris.New("render: not enough tracts with rate and income for scatter")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Rate vs Median Income", year)
	p.X.Label.Text = "Median household income ($)"
	p.Y.Label.Text = "Complaints per 1,000 residents"

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return eris.Wrap(err, "render: build scatter")
	}
	sc.GlyphStyle.Color = chartBlue
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc, plotter.NewGrid())

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	fit := plotter.NewFunction(func(x float64) float64 { return intercept + slope*x })
	fit.Color = chartOrange
	fit.Width = vg.Points(1.5)
	p.Add(fit)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrap(err, "render: save scatter")
	}
	return nil
}

// HistogramRates plots the distribution of per-tract complaint rates.
func HistogramRates(summaries []model.TractSummary, year int, path string) error {
	var vals plotter.Values
	for _, s := range summaries {
		if s.RateDefined {
			vals = append(vals, s.RatePer1000)
		}
	}
	if len(vals) == 0 {
		return eris.New("render: no defined rates for histogram")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Rate Distribution", year)
	p.X.Label.Text = "Complaints per 1,000 residents"
	p.Y.Label.Text = "Tracts"

	h, err := plotter.NewHist(vals, 20)
	if err != nil {
		return eris.Wrap(err, "render: build histogram")
	}
	h.FillColor = chartBlue
	p.Add(h)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrap(err, "render: save histogram")
	}
	return nil
}

// TimeSeriesDaily plots daily flood complaint counts across the year.
func TimeSeriesDaily(complaints []model.Complaint, year int, path string) error {
	if len(complaints) == 0 {
		return eris.New("render: no complaints for time series")
	}
	daily := make(map[time.Time]int64)
	for _, c := range complaints {
		day := c.CreatedDate.Truncate(24 * time.Hour)
		daily[day]++
	}
	days := make([]time.Time, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	pts := make(plotter.XYs, len(days))
	for i, d := range days {
		pts[i] = plotter.XY{X: float64(d.Unix()), Y: float64(daily[d])}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Daily Counts", year)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Complaints"
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02"}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return eris.Wrap(err, "render: build time series")
	}
	line.Color = chartBlue
	p.Add(line, plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return eris.Wrap(err, "render: save time series")
	}
	return nil
}

// BarTopComplaintTypes plots the ten most frequent complaint types.
func BarTopComplaintTypes(complaints []model.Complaint, year int, path string) error {
	if len(complaints) == 0 {
		return eris.New("render: no complaints for bar chart")
	}
	counts := make(map[string]int64)
	for _, c := range complaints {
		counts[c.ComplaintType]++
	}
	type typeCount struct {
		name  string
		count int64
	}
	ranked := make([]typeCount, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, typeCount{name, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	vals := make(plotter.Values, len(ranked))
	labels := make([]string, len(ranked))
	for i, tc := range ranked {
		vals[i] = float64(tc.count)
		labels[i] = tc.name
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("NYC Flood-Related 311 Complaints (%d) - Top Complaint Types", year)
	p.Y.Label.Text = "Complaints"

	bars, err := plotter.NewBarChart(vals, vg.Points(28))
	if err != nil {
		return eris.Wrap(err, "render: build bar chart")
	}
	bars.Color = chartBlue
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 0.6
	p.X.Tick.Label.XAlign = -0.8

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrap(err, "render: save bar chart")
	}
	return nil
}
