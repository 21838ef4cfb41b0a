package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var inf = math.Inf(1)

// Layout lists tried in order. Day-first brands still fall back to the
// month-first list (and vice versa) for cells the primary convention
// cannot parse, mirroring how the exports actually mix formats.
var dayFirstLayouts = []string{
	"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006", "02.01.2006",
	"02/01/2006 15:04:05", "02-01-2006 15:04:05",
	"02-Jan-2006", "02 Jan 2006", "2-Jan-06",
}

var monthFirstLayouts = []string{
	"01/02/2006", "1/2/2006", "01-02-2006", "1-2-2006",
	"01/02/2006 15:04:05",
	"Jan 2, 2006", "January 2, 2006",
}

var isoLayouts = []string{
	"2006-01-02", "2006-01-02 15:04:05", "2006/01/02", time.RFC3339,
}

// excel serial date epoch (the 1900 system, with its leap-year quirk
// already folded in)
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func parseDate(s string, dayFirst bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	// spreadsheet cells sometimes arrive as raw serial numbers
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f >= 10000 && f <= 80000 {
			days := int(f)
			return excelEpoch.AddDate(0, 0, days), nil
		}
		return time.Time{}, fmt.Errorf("not a date: %q", s)
	}

	primary, secondary := dayFirstLayouts, monthFirstLayouts
	if !dayFirst {
		primary, secondary = monthFirstLayouts, dayFirstLayouts
	}
	for _, group := range [][]string{primary, isoLayouts, secondary} {
		for _, layout := range group {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date: %q", s)
}
