package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbansignals/floodwatch/internal/config"
	"github.com/urbansignals/floodwatch/internal/model"
)

func complaintAt(ctype, descriptor string, year int) model.Complaint {
	return model.Complaint{
		ComplaintType: ctype,
		Descriptor:    descriptor,
		CreatedDate:   time.Date(year, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestFilterMatches(t *testing.T) {
	f := NewFilter(config.DefaultKeywords, 2019)

	tests := []struct {
		name string
		c    model.Complaint
		want bool
	}{
		{"sewer backup", complaintAt("Sewer Backup", "", 2019), true},
		{"street flooding", complaintAt("Street Flooding", "", 2019), true},
		{"case insensitive", complaintAt("BASEMENT FLOODING", "", 2019), true},
		{"keyword in descriptor", complaintAt("Street Condition", "Catch Basin Clogged/Flooding", 2019), true},
		{"plumbing", complaintAt("Plumbing", "", 2019), true},
		{"standing water", complaintAt("Standing Water", "", 2019), true},
		{"noise", complaintAt("Noise Complaint", "", 2019), false},
		{"illegal parking", complaintAt("Illegal Parking", "", 2019), false},
		{"wrong year", complaintAt("Street Flooding", "", 2020), false},
		{"rodent", complaintAt("Rodent", "", 2019), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Matches(tc.c))
		})
	}
}

func TestFilterNoiseAlwaysExcluded(t *testing.T) {
	// Even with a keyword list that would match it textually.
	f := NewFilter([]string{"noise"}, 2019)
	assert.False(t, f.Matches(complaintAt("Noise Complaint", "", 2019)))
}

func TestFilterZeroYearDisablesYearCheck(t *testing.T) {
	f := NewFilter([]string{"flood"}, 0)
	assert.True(t, f.Matches(complaintAt("Flooding", "", 2017)))
	assert.True(t, f.Matches(complaintAt("Flooding", "", 2023)))
}

func TestFilterApplyPreservesOrder(t *testing.T) {
	f := NewFilter(config.DefaultKeywords, 2019)
	in := []model.Complaint{
		complaintAt("Sewer Backup", "", 2019),
		complaintAt("Graffiti", "", 2019),
		complaintAt("Water Leak", "", 2019),
	}
	out := f.Apply(in)
	require.Len(t, out, 2)
	assert.Equal(t, "Sewer Backup", out[0].ComplaintType)
	assert.Equal(t, "Water Leak", out[1].ComplaintType)
}

func TestNewFilterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - flood\n  - sewer\n"), 0o644))

	f, err := NewFilterFromFile(path, 2019)
	require.NoError(t, err)
	assert.True(t, f.Matches(complaintAt("Sewer Backup", "", 2019)))
	assert.False(t, f.Matches(complaintAt("Water Leak", "", 2019)))
}

func TestNewFilterFromFileErrors(t *testing.T) {
	_, err := NewFilterFromFile(filepath.Join(t.TempDir(), "missing.yaml"), 2019)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("keywords: []\n"), 0o644))
	_, err = NewFilterFromFile(empty, 2019)
	assert.Error(t, err)
}
