package catalog

import (
	"math"
	"strconv"
	"strings"
)

var fractionPairs = [][2]string{
	{"1/2", "2/4"},
	{"1/3", "2/6"},
	{"2/3", "4/6"},
	{"1/4", "2/8"},
	{"3/4", "6/8"},
	{"1/5", "2/10"},
	{"3/5", "6/10"},
	{"5/6", "10/12"},
}

// Fractions returns the fraction variant: each card shows a fraction and
// matches the card showing an equivalent fraction.
func Fractions() *Catalog {
	c, err := NewCatalog("fraction", fractionPairs, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// FractionValue parses a "n/d" face. Zero denominators and anything that does
// not parse report false.
func FractionValue(face string) (float64, bool) {
	num, den, ok := strings.Cut(face, "/")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0, false
	}
	v := n / d
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatValue renders the decimal value of a fraction face for hint labels,
// or "" when there is nothing sensible to show.
func FormatValue(face string) string {
	v, ok := FractionValue(face)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
