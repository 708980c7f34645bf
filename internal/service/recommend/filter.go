package recommend

import (
	"strings"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

const (
	filterMaxItems      = 40
	filterRelaxBelow    = 5
	filterMinRating     = 6.0
	filterMinVotes      = 80
	filterRelevanceGain = 1.6
)

// QueryFilter configures FilterForQuery.
type QueryFilter struct {
	Query    string
	Strict   bool
	MinYear  int
	MaxItems int
}

// FilterByMinYear keeps candidates released in minYear or later. Candidates
// with an unknown year are dropped.
func FilterByMinYear(items []domain.CandidateMovie, minYear int) []domain.CandidateMovie {
	out := make([]domain.CandidateMovie, 0, len(items))
	for _, item := range items {
		if item.Year > 0 && item.Year >= minYear {
			out = append(out, item)
		}
	}
	return out
}

// filterBlob is the text matched against query keywords. It never includes the
// reason, which may itself be derived from the query.
func filterBlob(item domain.CandidateMovie) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{item.Title, item.Plot, strings.Join(item.Genres, ", ")} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return util.Lower(strings.Join(parts, " "))
}

func countHits(blob string, keywords []string) int {
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(blob, keyword) {
			hits++
		}
	}
	return hits
}

// FilterForQuery applies the final quality and relevance gate to a candidate
// list. Matching keywords add 1.6 each to the score. In strict mode a candidate
// must hit 1, 2 or 3 keywords depending on how many the query has; when fewer
// than five survive, candidates with at least one hit are appended.
func FilterForQuery(items []domain.CandidateMovie, f QueryFilter) []domain.CandidateMovie {
	if len(items) == 0 {
		return []domain.CandidateMovie{}
	}
	minYear := f.MinYear
	if minYear <= 0 {
		minYear = constants.SelectionConfig.MinRecommended
	}
	maxItems := f.MaxItems
	if maxItems <= 0 {
		maxItems = filterMaxItems
	}

	keywords := util.ExpandSynonyms(util.QueryTerms(f.Query, 0))
	required := 1
	if f.Strict && len(keywords) >= 3 {
		required = 2
	}
	if f.Strict && len(keywords) >= 6 {
		required = 3
	}

	filtered := make([]domain.CandidateMovie, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Year < minYear {
			continue
		}
		key := util.NormalizeTitle(item.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}

		hasQuality := item.PrimaryRating >= filterMinRating || item.SecondaryRating >= filterMinRating
		enoughVotes := item.VoteCount >= filterMinVotes || item.HasSecondaryRating()
		if !hasQuality && !enoughVotes {
			continue
		}

		bonus := 0.0
		if len(keywords) > 0 {
			hits := countHits(filterBlob(item), keywords)
			if f.Strict && hits < required {
				continue
			}
			bonus = float64(hits) * filterRelevanceGain
		}

		kept := item.Clone()
		kept.Score += bonus
		filtered = append(filtered, kept)
		seen[key] = struct{}{}
	}
	Rank(filtered)

	if f.Strict && len(keywords) > 0 && len(filtered) < filterRelaxBelow {
		relaxed := make([]domain.CandidateMovie, 0, len(items))
		for _, item := range items {
			if item.Year >= minYear {
				relaxed = append(relaxed, item)
			}
		}
		Rank(relaxed)
		for _, item := range relaxed {
			if len(filtered) >= maxItems {
				break
			}
			key := util.NormalizeTitle(item.Title)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			if countHits(filterBlob(item), keywords) == 0 {
				continue
			}
			filtered = append(filtered, item.Clone())
			seen[key] = struct{}{}
		}
	}

	if len(filtered) > maxItems {
		filtered = filtered[:maxItems]
	}
	return filtered
}
