package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Table is a parsed tabular file: ordered headers plus one map per data
// row keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ReadAny picks a parser by extension and reads the first sheet.
// headerRows are 1-based; several rows are merged into one header line
// (Unicharm exports ship a stacked three-row header).
func ReadAny(r io.Reader, filename string, headerRows []int) (*Table, error) {
	return ReadSheet(r, filename, "", headerRows)
}

// ReadSheet reads a named sheet from a workbook ("" = first sheet).
// CSV has no sheets; asking for one there is an error.
func ReadSheet(r io.Reader, filename, sheet string, headerRows []int) (*Table, error) {
	if len(headerRows) == 0 {
		headerRows = []int{1}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r, sheet, headerRows)
	case ".xls":
		return readXLS(r, sheet, headerRows)
	case ".csv":
		if sheet != "" {
			return nil, fmt.Errorf("csv has no sheet %q", sheet)
		}
		return readCSV(r, headerRows)
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// mergeHeaders builds the header line from one or more header rows.
// Per column the non-empty values are deduplicated top-down and joined
// with a space; a fully empty column becomes "Column N".
func mergeHeaders(rows [][]string, headerRows []int) []string {
	width := 0
	for _, hr := range headerRows {
		if i := hr - 1; i >= 0 && i < len(rows) && len(rows[i]) > width {
			width = len(rows[i])
		}
	}
	out := make([]string, width)
	for c := 0; c < width; c++ {
		seen := map[string]bool{}
		var parts []string
		for _, hr := range headerRows {
			i := hr - 1
			if i < 0 || i >= len(rows) || c >= len(rows[i]) {
				continue
			}
			v := normalizeCell(rows[i][c])
			lv := strings.ToLower(v)
			if v == "" || lv == "nan" || lv == "none" || seen[v] {
				continue
			}
			seen[v] = true
			parts = append(parts, v)
		}
		h := strings.Join(parts, " ")
		if h == "" {
			h = fmt.Sprintf("Column %d", c+1)
		}
		out[c] = h
	}
	return out
}

// rowsToMaps converts AoA to header-keyed maps, starting after the last
// header row and skipping fully empty rows.
func rowsToMaps(rows [][]string, headers []string, headerRows []int) []map[string]string {
	start := 0
	for _, hr := range headerRows {
		if hr > start {
			start = hr
		}
	}
	var out []map[string]string
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := range headers {
			var v string
			if c < len(rec) {
				v = rec[c]
			}
			m[headers[c]] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}

func buildTable(rows [][]string, headerRows []int) *Table {
	h := mergeHeaders(rows, headerRows)
	return &Table{Headers: h, Rows: rowsToMaps(rows, h, headerRows)}
}

func normalizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
