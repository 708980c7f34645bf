package recommend

import (
	"math"
	"strings"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// SelectSeeds picks the favorites used for "similar title" expansion: up to
// four rated 8+, relaxed to 6.5+ when fewer than three qualify.
func SelectSeeds(favorites []domain.SeedMovie) []domain.SeedMovie {
	seeds := filterSeeds(favorites, constants.CollectorConfig.SeedStrictRating)
	if len(seeds) < constants.CollectorConfig.SeedMinCount {
		seeds = filterSeeds(favorites, constants.CollectorConfig.SeedRelaxedRating)
	}
	return seeds
}

func filterSeeds(favorites []domain.SeedMovie, minRating float64) []domain.SeedMovie {
	seeds := make([]domain.SeedMovie, 0, constants.CollectorConfig.SeedLimit)
	for _, favorite := range favorites {
		if favorite.Rating < minRating {
			continue
		}
		seeds = append(seeds, favorite)
		if len(seeds) >= constants.CollectorConfig.SeedLimit {
			break
		}
	}
	return seeds
}

// titleMatchScore grades how well a candidate name matches a target name:
// exact, containment in either direction, or the share of target tokens found.
func titleMatchScore(target, candidate string, exact, contains float64) float64 {
	if candidate == "" || target == "" {
		return 0
	}
	if candidate == target {
		return exact
	}
	if containsEither(target, candidate) {
		return contains
	}
	targetTokens := util.TitleTokens(target)
	candidateTokens := util.TitleTokens(candidate)
	if len(targetTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}
	overlap := 0
	for token := range targetTokens {
		if _, ok := candidateTokens[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(targetTokens)) * 2
}

// SeedMatchScore rates a search result against a known title and year. Scores
// range from about -0.8 to 9; a result without a title scores -1.
func SeedMatchScore(item gateway.TMDBMovie, seedNormalized string, seedYear int) float64 {
	title := util.NormalizeTitle(item.Title)
	if title == "" {
		return -1
	}

	score := titleMatchScore(seedNormalized, title, 6, 3)

	if seedYear > 0 {
		if itemYear := item.Year(); itemYear > 0 {
			switch diff := absInt(itemYear - seedYear); {
			case diff == 0:
				score += 2
			case diff <= 1:
				score += 1.4
			case diff <= 3:
				score += 0.6
			default:
				score -= 0.8
			}
		}
	}

	score += math.Min(item.VoteAverage, 10) / 20
	score += math.Min(float64(item.VoteCount)/20000, 0.5)
	return score
}

// PickBestSeed returns the best-matching entry among the first page of search
// results, or false when even the best one is too weak to trust.
func PickBestSeed(results []gateway.TMDBMovie, title string, year int) (gateway.TMDBMovie, bool) {
	seedNormalized := util.NormalizeTitle(title)
	if seedNormalized == "" {
		return gateway.TMDBMovie{}, false
	}

	var best gateway.TMDBMovie
	bestScore := -1.0
	found := false
	for i, item := range results {
		if i >= constants.CollectorConfig.SeedSearchWindow {
			break
		}
		score := SeedMatchScore(item, seedNormalized, year)
		if score > bestScore {
			bestScore = score
			best = item
			found = true
		}
	}
	if !found || bestScore < constants.CollectorConfig.SeedMinMatchScore {
		return gateway.TMDBMovie{}, false
	}
	return best, true
}

// KinopoiskDocScore rates a regional search doc against a title and year using
// the best of its localized names.
func KinopoiskDocScore(doc gateway.KinopoiskDoc, titleNormalized string, year int) float64 {
	score := 0.0
	for _, name := range doc.Names() {
		score = math.Max(score, titleMatchScore(titleNormalized, util.NormalizeTitle(name), 6, 3.5))
	}

	docYear := doc.YearValue()
	if year > 0 && docYear > 0 {
		switch diff := absInt(docYear - year); {
		case diff == 0:
			score += 2
		case diff <= 1:
			score += 1.2
		case diff <= 3:
			score += 0.4
		}
	}
	return score
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
