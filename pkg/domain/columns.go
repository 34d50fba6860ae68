package domain

import (
	"strconv"
	"strings"
)

// MaxColumns is the largest number of columns a row may hold.
const MaxColumns = 6

// SingleColumn is the layout name of a one-column row.
const SingleColumn = "1-col"

// Column layouts are named proportion templates: each "a-b" pair is one column
// taking a/b of the row width.
var columnLayouts = []string{
	SingleColumn,
	"1-2-1-2",
	"1-3-2-3",
	"2-3-1-3",
	"2-5-3-5",
	"3-5-2-5",
	"1-3-1-3-1-3",
	"1-4-1-2-1-4",
	"1-5-3-5-1-5",
	"1-6-2-3-1-6",
	"1-4-1-4-1-4-1-4",
	"1-5-1-5-1-5-1-5",
	"1-6-1-6-1-6-1-6",
	"1-8-1-4-1-4-1-8",
	"1-5-1-5-1-5-1-5-1-5",
	"1-6-1-6-1-6-1-6-1-6-1-6",
}

var defaultLayouts = map[int]string{
	1: SingleColumn,
	2: "1-2-1-2",
	3: "1-3-1-3-1-3",
	4: "1-4-1-4-1-4-1-4",
	5: "1-5-1-5-1-5-1-5-1-5",
	6: "1-6-1-6-1-6-1-6-1-6-1-6",
}

// ColumnLayouts lists the known layout names.
func ColumnLayouts() []string {
	return append([]string(nil), columnLayouts...)
}

// IsKnownColumnLayout reports whether name is in the catalogue.
func IsKnownColumnLayout(name string) bool {
	for _, l := range columnLayouts {
		if l == name {
			return true
		}
	}
	return false
}

// DefaultColumnLayout returns the equal-width layout for n columns, or "" when n is
// outside 1..MaxColumns.
func DefaultColumnLayout(n int) string {
	return defaultLayouts[n]
}

// Fractions parses a layout name into per-column width fractions.
func Fractions(name string) ([]float64, bool) {
	if name == SingleColumn {
		return []float64{1}, true
	}
	parts := strings.Split(name, "-")
	if len(parts) < 2 || len(parts)%2 != 0 {
		return nil, false
	}
	out := make([]float64, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		num, err1 := strconv.Atoi(parts[i])
		den, err2 := strconv.Atoi(parts[i+1])
		if err1 != nil || err2 != nil || num <= 0 || den <= 0 {
			return nil, false
		}
		out = append(out, float64(num)/float64(den))
	}
	if len(out) > MaxColumns {
		return nil, false
	}
	return out, true
}

// ColumnCount returns how many columns a layout name describes.
func ColumnCount(name string) (int, bool) {
	f, ok := Fractions(name)
	if !ok {
		return 0, false
	}
	return len(f), true
}
