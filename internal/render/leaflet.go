package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/rotisserie/eris"
	geomgeojson "github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urbansignals/floodwatch/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var mapTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// NYC city hall, roughly the centroid of the five boroughs at zoom 11.
const (
	defaultCenterLat = 40.7128
	defaultCenterLng = -74.0060
	defaultZoom      = 11

	defaultTileLayer   = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	defaultAttribution = "&copy; OpenStreetMap contributors"
)

// MapOptions configures the interactive Leaflet maps.
type MapOptions struct {
	Title       string
	TileLayer   string
	Attribution string
	ColorScheme string
	// MaxPoints caps how many complaint markers the point map embeds.
	MaxPoints int
	CenterLat float64
	CenterLng float64
	Zoom      int
}

func (o *MapOptions) defaults() {
	if o.TileLayer == "" {
		o.TileLayer = defaultTileLayer
	}
	if o.Attribution == "" {
		o.Attribution = defaultAttribution
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = 5000
	}
	if o.CenterLat == 0 && o.CenterLng == 0 {
		o.CenterLat = defaultCenterLat
		o.CenterLng = defaultCenterLng
	}
	if o.Zoom == 0 {
		o.Zoom = defaultZoom
	}
}

type mapPage struct {
	Title       string
	TileLayer   string
	Attribution string
	CenterLat   float64
	CenterLng   float64
	Zoom        int
	GeoJSON     template.JS
	Points      template.JS
	Legend      template.JS
	LegendTitle string
}

type legendEntry struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// WriteChoroplethMap writes an interactive tract choropleth. Each feature
// carries a precomputed fill color and tooltip so the page needs no styling
// logic of its own.
func WriteChoroplethMap(w io.Writer, summaries []model.TractSummary, tracts []*model.Tract, opts MapOptions) error {
	opts.defaults()

	byGEOID := make(map[string]*model.Tract, len(tracts))
	for _, t := range tracts {
		if t.Geometry != nil {
			byGEOID[t.GEOID] = t
		}
	}

	var values []float64
	for _, s := range summaries {
		if s.RateDefined {
			values = append(values, s.RatePer1000)
		}
	}
	scale := NewScale(Ramp(opts.ColorScheme), values)

	fc := &geomgeojson.FeatureCollection{}
	for _, s := range summaries {
		t, ok := byGEOID[s.GEOID]
		if !ok {
			continue
		}
		fill := hexColor(undefinedColor)
		if s.RateDefined {
			fill = hexColor(scale.Color(s.RatePer1000))
		}
		fc.Features = append(fc.Features, &geomgeojson.Feature{
			ID:       s.GEOID,
			Geometry: t.Geometry,
			Properties: map[string]interface{}{
				"geoid":   s.GEOID,
				"fill":    fill,
				"tooltip": tractTooltip(s),
			},
		})
	}
	if len(fc.Features) == 0 {
		return eris.New("render: no tracts with geometry for choropleth map")
	}

	geoJSON, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "render: marshal choropleth geojson")
	}
	legend, err := json.Marshal(legendEntries(scale))
	if err != nil {
		return eris.Wrap(err, "render: marshal legend")
	}

	page := mapPage{
		Title:       opts.Title,
		TileLayer:   opts.TileLayer,
		Attribution: opts.Attribution,
		CenterLat:   opts.CenterLat,
		CenterLng:   opts.CenterLng,
		Zoom:        opts.Zoom,
		GeoJSON:     template.JS(geoJSON),
		Legend:      template.JS(legend),
		LegendTitle: "Complaints per 1,000",
	}
	if err := mapTemplates.ExecuteTemplate(w, "choropleth.html.tmpl", page); err != nil {
		return eris.Wrap(err, "render: execute choropleth template")
	}
	return nil
}

// WritePointMap writes a marker map of individual complaints, capped at
// opts.MaxPoints to keep the page loadable.
func WritePointMap(w io.Writer, complaints []model.Complaint, opts MapOptions) error {
	opts.defaults()

	points := make([][3]interface{}, 0, len(complaints))
	for _, c := range complaints {
		if !c.HasLocation() {
			continue
		}
		popup := template.HTMLEscapeString(fmt.Sprintf("%s: %s (%s)", c.ComplaintType, c.Descriptor, c.CreatedDate.Format("2006-01-02")))
		points = append(points, [3]interface{}{c.Latitude, c.Longitude, popup})
		if len(points) >= opts.MaxPoints {
			break
		}
	}
	if len(points) == 0 {
		return eris.New("render: no located complaints for point map")
	}

	data, err := json.Marshal(points)
	if err != nil {
		return eris.Wrap(err, "render: marshal point data")
	}
	page := mapPage{
		Title:       opts.Title,
		TileLayer:   opts.TileLayer,
		Attribution: opts.Attribution,
		CenterLat:   opts.CenterLat,
		CenterLng:   opts.CenterLng,
		Zoom:        opts.Zoom,
		Points:      template.JS(data),
	}
	if err := mapTemplates.ExecuteTemplate(w, "points.html.tmpl", page); err != nil {
		return eris.Wrap(err, "render: execute points template")
	}
	return nil
}

// WriteHeatmap writes a density heatmap over all located complaints.
func WriteHeatmap(w io.Writer, complaints []model.Complaint, opts MapOptions) error {
	opts.defaults()

	points := make([][2]float64, 0, len(complaints))
	for _, c := range complaints {
		if c.HasLocation() {
			points = append(points, [2]float64{c.Latitude, c.Longitude})
		}
	}
	if len(points) == 0 {
		return eris.New("render: no located complaints for heatmap")
	}

	data, err := json.Marshal(points)
	if err != nil {
		return eris.Wrap(err, "render: marshal heatmap data")
	}
	page := mapPage{
		Title:       opts.Title,
		TileLayer:   opts.TileLayer,
		Attribution: opts.Attribution,
		CenterLat:   opts.CenterLat,
		CenterLng:   opts.CenterLng,
		Zoom:        opts.Zoom,
		Points:      template.JS(data),
	}
	if err := mapTemplates.ExecuteTemplate(w, "heatmap.html.tmpl", page); err != nil {
		return eris.Wrap(err, "render: execute heatmap template")
	}
	return nil
}

func legendEntries(scale *Scale) []legendEntry {
	breaks := scale.Breaks()
	entries := make([]legendEntry, 0, len(breaks)+1)
	lower := 0.0
	for i, b := range breaks {
		entries = append(entries, legendEntry{
			Color: hexColor(scale.ramp[i]),
			Label: fmt.Sprintf("%.2f - %.2f", lower, b),
		})
		lower = b
	}
	entries = append(entries, legendEntry{
		Color: hexColor(scale.ramp[len(scale.ramp)-1]),
		Label: fmt.Sprintf("%.2f+", lower),
	})
	entries = append(entries, legendEntry{
		Color: hexColor(undefinedColor),
		Label: "No population data",
	})
	return entries
}
