// Package profile turns raw watch-history rows into a TasteProfile.
package profile

import (
	"sort"
	"strings"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// Column aliases in priority order. History sheets are maintained by hand and
// mix Russian and English headers.
var (
	TitleAliases  = []string{"Фильм", "Название", "Film", "Title"}
	YearAliases   = []string{"Год", "Year"}
	RatingAliases = []string{"Оценка", "Rating", "rating"}
	GenreAliases  = []string{"Жанр", "Genre"}
)

// FirstNonEmpty returns the first trimmed non-empty value among aliases.
func FirstNonEmpty(row domain.WatchHistoryRow, aliases ...string) string {
	for _, alias := range aliases {
		if value := strings.TrimSpace(row[alias]); value != "" {
			return value
		}
	}
	return ""
}

// ParsedRow is one history row resolved to typed fields.
type ParsedRow struct {
	Title  string
	Year   int
	Rating float64
	Genres []string
}

// ParseRow resolves a row through the alias lists. ok is false when no title
// could be found.
func ParseRow(row domain.WatchHistoryRow) (ParsedRow, bool) {
	title := FirstNonEmpty(row, TitleAliases...)
	if title == "" {
		return ParsedRow{}, false
	}
	return ParsedRow{
		Title:  title,
		Year:   util.ParseYear(FirstNonEmpty(row, YearAliases...)),
		Rating: util.ParseRating(FirstNonEmpty(row, RatingAliases...)),
		Genres: util.SplitGenres(FirstNonEmpty(row, GenreAliases...)),
	}, true
}

// Build aggregates history rows into a profile. It is pure: the same rows in
// the same order always produce the same profile.
func Build(rows []domain.WatchHistoryRow) *domain.TasteProfile {
	genreScores := make(map[string]float64)
	genreOrder := make([]string, 0)
	watched := make(map[string]string)
	favorites := make([]domain.SeedMovie, 0, len(rows))
	ratedCount := 0
	ratingSum := 0.0

	for _, row := range rows {
		parsed, ok := ParseRow(row)
		if !ok {
			continue
		}

		if key := util.NormalizeTitle(parsed.Title); key != "" {
			if _, seen := watched[key]; !seen {
				watched[key] = parsed.Title
			}
		}

		if parsed.Rating > 0 {
			ratedCount++
			ratingSum += parsed.Rating
			for _, genre := range parsed.Genres {
				if _, seen := genreScores[genre]; !seen {
					genreOrder = append(genreOrder, genre)
				}
				genreScores[genre] += parsed.Rating
			}
		}

		favorites = append(favorites, domain.SeedMovie{
			Title:  parsed.Title,
			Year:   parsed.Year,
			Rating: parsed.Rating,
			Genres: parsed.Genres,
		})
	}

	sort.SliceStable(favorites, func(i, j int) bool {
		return favorites[i].Rating > favorites[j].Rating
	})
	if len(favorites) > constants.CollectorConfig.ProfileFavorites {
		favorites = favorites[:constants.CollectorConfig.ProfileFavorites]
	}

	topGenres := make([]domain.GenreScore, 0, len(genreOrder))
	for _, genre := range genreOrder {
		topGenres = append(topGenres, domain.GenreScore{Genre: genre, Score: genreScores[genre]})
	}
	sort.SliceStable(topGenres, func(i, j int) bool {
		return topGenres[i].Score > topGenres[j].Score
	})
	if len(topGenres) > constants.CollectorConfig.ProfileTopGenres {
		topGenres = topGenres[:constants.CollectorConfig.ProfileTopGenres]
	}

	watchedTitles := make([]string, 0, len(watched))
	lookup := make(map[string]struct{}, len(watched))
	for key, title := range watched {
		watchedTitles = append(watchedTitles, title)
		lookup[key] = struct{}{}
	}
	sort.Strings(watchedTitles)

	average := 0.0
	if ratedCount > 0 {
		average = ratingSum / float64(ratedCount)
	}

	return &domain.TasteProfile{
		TotalEntries:  len(rows),
		RatedEntries:  ratedCount,
		AverageRating: average,
		TopGenres:     topGenres,
		Favorites:     favorites,
		WatchedTitles: watchedTitles,
		WatchedLookup: lookup,
	}
}
