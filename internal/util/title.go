package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	trailingYearPattern = regexp.MustCompile(`\(\s*\d{4}\s*\)\s*$`)
	genreSeparator      = regexp.MustCompile(`[,/|;]+`)
)

// Lower lower-cases s without locale-specific rules. A Caser is stateful, so a
// fresh one is built per call.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeTitle is the single normalization used for every watched/candidate
// comparison: lower-case, fold ё to е, drop a trailing "(YYYY)", replace
// punctuation with spaces, collapse whitespace.
func NormalizeTitle(title string) string {
	normalized := strings.TrimSpace(title)
	if normalized == "" {
		return ""
	}
	normalized = Lower(normalized)
	normalized = trailingYearPattern.ReplaceAllString(normalized, "")

	var builder strings.Builder
	builder.Grow(len(normalized))
	for _, r := range normalized {
		if r == 'ё' {
			r = 'е'
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			builder.WriteRune(r)
			continue
		}
		builder.WriteRune(' ')
	}
	return CollapseSpaces(builder.String())
}

// TitleTokens splits a normalized title into its distinct words.
func TitleTokens(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	tokens := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		tokens[field] = struct{}{}
	}
	return tokens
}

// SplitGenres splits a free-form genre cell on , / | ; and lower-cases each item.
func SplitGenres(value string) []string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return nil
	}
	parts := genreSeparator.Split(raw, -1)
	genres := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			genres = append(genres, Lower(trimmed))
		}
	}
	return genres
}
