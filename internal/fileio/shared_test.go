package fileio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeHeadersSingleRow(t *testing.T) {
	rows := [][]string{{"Bill Number", "Bill Date", "", "nan"}}
	h := mergeHeaders(rows, []int{1})
	assert.Equal(t, []string{"Bill Number", "Bill Date", "Column 3", "Column 4"}, h)
}

func TestMergeHeadersStackedRows(t *testing.T) {
	// three stacked header rows, as Unicharm exports ship them
	rows := [][]string{
		{"Invoice", "Product", "Total"},
		{"Number", "Name", "Quantity"},
		{"", "Name", ""}, // repeated value deduplicated
	}
	h := mergeHeaders(rows, []int{1, 2, 3})
	assert.Equal(t, []string{"Invoice Number", "Product Name", "Total Quantity"}, h)
}

func TestMergeHeadersSkipsPlaceholderCells(t *testing.T) {
	rows := [][]string{
		{"nan", "Invoice"},
		{"Number", "none"},
	}
	h := mergeHeaders(rows, []int{1, 2})
	assert.Equal(t, []string{"Number", "Invoice"}, h)
}

func TestRowsToMapsStartsAfterLastHeaderRow(t *testing.T) {
	rows := [][]string{
		{"h1", "h2"},
		{"sub1", "sub2"},
		{"a", "b"},
		{"", "  "}, // fully empty, skipped
		{"c"},      // short row padded with empty
	}
	headers := []string{"h1 sub1", "h2 sub2"}
	out := rowsToMaps(rows, headers, []int{1, 2})

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0]["h1 sub1"])
	assert.Equal(t, "b", out[0]["h2 sub2"])
	assert.Equal(t, "c", out[1]["h1 sub1"])
	assert.Equal(t, "", out[1]["h2 sub2"])
}

func TestReadAnyCSV(t *testing.T) {
	csvData := "Bill Number,Units\nINV1,5\nINV2,3\n"
	tab, err := ReadAny(strings.NewReader(csvData), "orders.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bill Number", "Units"}, tab.Headers)
	require.Len(t, tab.Rows, 2)
	assert.Equal(t, "INV1", tab.Rows[0]["Bill Number"])
	assert.Equal(t, "3", tab.Rows[1]["Units"])
}

func TestReadSheetErrors(t *testing.T) {
	_, err := ReadSheet(strings.NewReader("a,b\n"), "orders.csv", "Sheet2", nil)
	assert.Error(t, err)

	_, err = ReadAny(strings.NewReader(""), "orders.txt", nil)
	assert.Error(t, err)
}

func TestNormalizeCell(t *testing.T) {
	assert.Equal(t, "Invoice Number", normalizeCell("  Invoice \n Number "))
	assert.Equal(t, "", normalizeCell("   "))
}
