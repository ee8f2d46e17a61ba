package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestXLSX(t *testing.T) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Demographics")
	require.NoError(t, err)

	for _, rowData := range [][]string{
		{"GEOID", "population", "median_income"},
		{"36061018700", "1000", "85000"},
		{"36047000200", "4200", "61000"},
	} {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "demo.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeTestXLSX(t)

	var header []string
	rows, err := ReadXLSX(path, XLSXOptions{
		SkipRows: 1,
		OnHeader: func(h []string) { header = h },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"GEOID", "population", "median_income"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"36061018700", "1000", "85000"}, rows[0])
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := writeTestXLSX(t)

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Demographics"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.Error(t, err)
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
