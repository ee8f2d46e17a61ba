// Package pipeline runs the processing stages in order: keyword filter,
// spatial join, per-tract aggregation, and report output. Each stage is a
// plain function over in-memory slices; the Pipeline type wires them to
// the run store and metrics.
package pipeline

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/urbansignals/floodwatch/internal/model"
)

// exclusions lists complaint types that match a flood keyword textually
// but are not flood-related. "Noise Complaint" matches nothing today, but
// has appeared in source data under descriptors containing "water" and is
// always excluded.
var exclusions = map[string]bool{
	"noise complaint": true,
	"noise":           true,
}

// Filter selects flood-related complaints for a given year.
type Filter struct {
	keywords []string
	year     int
}

// NewFilter builds a filter from lowercase keywords. Empty keywords are
// dropped; a zero year disables the year check.
func NewFilter(keywords []string, year int) *Filter {
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kws = append(kws, k)
		}
	}
	return &Filter{keywords: kws, year: year}
}

// keywordFile is the on-disk format for a custom keyword list.
type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// NewFilterFromFile loads a YAML keyword list and builds a filter from it.
func NewFilterFromFile(path string, year int) (*Filter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read keyword file %s", path)
	}
	var kf keywordFile
	if err := yaml.Unmarshal(raw, &kf); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse keyword file %s", path)
	}
	if len(kf.Keywords) == 0 {
		return nil, eris.Errorf("pipeline: keyword file %s has no keywords", path)
	}
	return NewFilter(kf.Keywords, year), nil
}

// Matches reports whether a complaint is flood-related: its type or
// descriptor contains a keyword (case-insensitive), it is not excluded,
// and it falls in the filter year.
func (f *Filter) Matches(c model.Complaint) bool {
	if f.year != 0 && c.CreatedDate.Year() != f.year {
		return false
	}

	ctype := strings.ToLower(c.ComplaintType)
	if exclusions[ctype] {
		return false
	}

	desc := strings.ToLower(c.Descriptor)
	for _, kw := range f.keywords {
		if strings.Contains(ctype, kw) || strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// Apply returns the complaints that pass the filter, preserving input
// order.
func (f *Filter) Apply(complaints []model.Complaint) []model.Complaint {
	var out []model.Complaint
	for _, c := range complaints {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}
