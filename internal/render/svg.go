package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/urbansignals/floodwatch/internal/model"
)

// ChoroplethOptions configures the static SVG map.
type ChoroplethOptions struct {
	Width       int
	Height      int
	Title       string
	ColorScheme string
	// Metric selects the painted value: "count" or "rate".
	Metric string
}

func (o *ChoroplethOptions) defaults() {
	if o.Width <= 0 {
		o.Width = 1000
	}
	if o.Height <= 0 {
		o.Height = 900
	}
	if o.Metric == "" {
		o.Metric = "rate"
	}
}

// WriteChoroplethSVG draws tract polygons filled by complaint intensity.
// Tracts without a defined rate are painted gray when the metric is
// "rate". Latitude flips because SVG y grows downward.
func WriteChoroplethSVG(w io.Writer, summaries []model.TractSummary, tracts []*model.Tract, opts ChoroplethOptions) error {
	opts.defaults()

	byGEOID := make(map[string]*model.Tract, len(tracts))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, t := range tracts {
		if t.Geometry == nil {
			continue
		}
		byGEOID[t.GEOID] = t
		b := t.Geometry.Bounds()
		minX = math.Min(minX, b.Min(0))
		minY = math.Min(minY, b.Min(1))
		maxX = math.Max(maxX, b.Max(0))
		maxY = math.Max(maxY, b.Max(1))
	}
	if len(byGEOID) == 0 {
		return eris.New("render: no tract geometries to draw")
	}

	var values []float64
	for _, s := range summaries {
		if v, ok := metricValue(s, opts.Metric); ok {
			values = append(values, v)
		}
	}
	scale := NewScale(Ramp(opts.ColorScheme), values)

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 || spanY == 0 {
		return eris.New("render: degenerate bounds")
	}

	margin := 20.0
	drawW := float64(opts.Width) - 2*margin
	drawH := float64(opts.Height) - 2*margin
	px := func(lng, lat float64) (float64, float64) {
		x := margin + (lng-minX)/spanX*drawW
		y := margin + (1-(lat-minY)/spanY)*drawH
		return x, y
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="#ffffff"/>`+"\n")
	if opts.Title != "" {
		fmt.Fprintf(&b, `<text x="%d" y="16" font-family="sans-serif" font-size="14">%s</text>`+"\n",
			opts.Width/2-len(opts.Title)*3, escapeXML(opts.Title))
	}

	for _, s := range summaries {
		t, ok := byGEOID[s.GEOID]
		if !ok {
			continue
		}
		fill := hexColor(undefinedColor)
		if v, ok := metricValue(s, opts.Metric); ok {
			fill = hexColor(scale.Color(v))
		}
		for i := 0; i < t.Geometry.NumPolygons(); i++ {
			path := polygonPath(t.Geometry.Polygon(i), px)
			if path == "" {
				continue
			}
			fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="#666666" stroke-width="0.3"><title>%s</title></path>`+"\n",
				path, fill, escapeXML(tractTooltip(s)))
		}
	}
	fmt.Fprintf(&b, "</svg>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "render: write choropleth svg")
	}
	return nil
}

func metricValue(s model.TractSummary, metric string) (float64, bool) {
	switch metric {
	case "count":
		return float64(s.ComplaintCount), true
	default:
		if !s.RateDefined {
			return 0, false
		}
		return s.RatePer1000, true
	}
}

func tractTooltip(s model.TractSummary) string {
	if !s.RateDefined {
		return fmt.Sprintf("%s: %d complaints (no population data)", s.GEOID, s.ComplaintCount)
	}
	return fmt.Sprintf("%s: %d complaints, %.2f per 1,000", s.GEOID, s.ComplaintCount, s.RatePer1000)
}

// polygonPath builds an SVG path for a polygon: outer ring plus holes,
// relying on the even-odd fill rule default being overridden per ring
// winding. Rings are emitted as separate subpaths.
func polygonPath(p *geom.Polygon, px func(lng, lat float64) (float64, float64)) string {
	var b strings.Builder
	for r := 0; r < p.NumLinearRings(); r++ {
		ring := p.LinearRing(r)
		coords := ring.FlatCoords()
		if len(coords) < 6 {
			continue
		}
		for i := 0; i+1 < len(coords); i += 2 {
			x, y := px(coords[i], coords[i+1])
			if i == 0 {
				fmt.Fprintf(&b, "M%.2f %.2f", x, y)
			} else {
				fmt.Fprintf(&b, "L%.2f %.2f", x, y)
			}
		}
		b.WriteString("Z")
	}
	return b.String()
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
