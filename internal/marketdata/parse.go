package marketdata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
}

// parseDate accepts the date layouts found in exported price and chain files.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseNumber parses a cell, tolerating thousands separators, a trailing
// percent sign and accounting negatives such as (1,234). Empty cells and
// dashes are NaN.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "--", "N/A", "n/a", "NaN":
		return math.NaN(), nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	if percent {
		v /= 100
	}
	if negative {
		v = -v
	}
	return v, nil
}

// headerIndex maps normalized header names to column positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// column returns the position of the first present name.
func column(idx map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := idx[normalizeHeader(n)]; ok {
			return i, true
		}
	}
	return 0, false
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
