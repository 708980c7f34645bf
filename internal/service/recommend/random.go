package recommend

import (
	"math"
	"math/rand"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// PickWeighted draws one of the first topK items with probability proportional
// to max(score, 0.1). The draw is repeatable for a seeded rng and a fixed order.
// rng may be nil to use the global source.
func PickWeighted(items []domain.CandidateMovie, topK int, rng *rand.Rand) (domain.CandidateMovie, bool) {
	if len(items) == 0 {
		return domain.CandidateMovie{}, false
	}
	if topK < 1 {
		topK = 1
	}
	if len(items) > topK {
		items = items[:topK]
	}

	total := 0.0
	weights := make([]float64, len(items))
	for i, item := range items {
		weights[i] = math.Max(item.Score, constants.SelectionConfig.MinWeight)
		total += weights[i]
	}

	var roll float64
	if rng != nil {
		roll = rng.Float64() * total
	} else {
		roll = rand.Float64() * total
	}

	for i, weight := range weights {
		if roll < weight {
			return items[i].Clone(), true
		}
		roll -= weight
	}
	return items[len(items)-1].Clone(), true
}

// ExcludeTitles drops candidates whose normalized title is in titles.
func ExcludeTitles(items []domain.CandidateMovie, titles []string) []domain.CandidateMovie {
	if len(items) == 0 || len(titles) == 0 {
		return items
	}
	blocked := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		if key := util.NormalizeTitle(title); key != "" {
			blocked[key] = struct{}{}
		}
	}
	out := make([]domain.CandidateMovie, 0, len(items))
	for _, item := range items {
		if _, skip := blocked[util.NormalizeTitle(item.Title)]; skip {
			continue
		}
		out = append(out, item)
	}
	return out
}
