package util

import (
	"math"
	"strconv"
	"strings"
)

const (
	MinYear = 1888
	MaxYear = 2100
)

// ParseRating parses a rating leniently: comma decimal separators are accepted,
// anything unparsable yields 0.
func ParseRating(value string) float64 {
	text := strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	if text == "" {
		return 0
	}
	rating, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
		return 0
	}
	return rating
}

// ParseYear reads a leading four-digit year ("2014", "2014-11-05") and returns 0
// when it is missing or outside [MinYear, MaxYear].
func ParseYear(value string) int {
	text := strings.TrimSpace(value)
	if len(text) < 4 {
		return 0
	}
	year, err := strconv.Atoi(text[:4])
	if err != nil {
		return 0
	}
	return ValidYear(year)
}

// ValidYear returns year when it is plausible for a film, otherwise 0.
func ValidYear(year int) int {
	if year < MinYear || year > MaxYear {
		return 0
	}
	return year
}
