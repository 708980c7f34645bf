package util

import "testing"

func TestParseRating(t *testing.T) {
	tests := map[string]float64{
		"8":     8,
		"8.5":   8.5,
		"7,25":  7.25,
		" 9 ":   9,
		"":      0,
		"N/A":   0,
		"great": 0,
		"NaN":   0,
	}
	for input, expect := range tests {
		if got := ParseRating(input); got != expect {
			t.Fatalf("ParseRating(%q) = %v, want %v", input, got, expect)
		}
	}
}

func TestParseYear(t *testing.T) {
	tests := map[string]int{
		"2014":       2014,
		"2014-11-05": 2014,
		"1888":       1888,
		"1887":       0,
		"2101":       0,
		"199":        0,
		"abcd":       0,
		"":           0,
	}
	for input, expect := range tests {
		if got := ParseYear(input); got != expect {
			t.Fatalf("ParseYear(%q) = %d, want %d", input, got, expect)
		}
	}
}
