package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

const (
	reasonSharedGenres = "совпадают жанры: "
	reasonCloseProfile = "близко к вашим любимым жанрам и оценкам"
	reasonGenreMatch   = "совпадает по жанру: "
	reasonLikeProfile  = "похоже на ваш профиль"
	reasonByQuery      = "по запросу: "
	reasonQueryGenres  = "; жанры: "
)

// GenreWeights maps each normalized top genre to its score relative to the
// strongest genre, so every weight lies in (0, 1].
func GenreWeights(p *domain.TasteProfile) map[string]float64 {
	if p == nil || len(p.TopGenres) == 0 {
		return map[string]float64{}
	}

	maxScore := 0.0
	for _, genre := range p.TopGenres {
		if genre.Score > maxScore {
			maxScore = genre.Score
		}
	}
	if maxScore <= 0 {
		maxScore = 1
	}

	weights := make(map[string]float64, len(p.TopGenres))
	for i, genre := range p.TopGenres {
		if i >= constants.CollectorConfig.WeightedGenres {
			break
		}
		key := util.NormalizeTitle(genre.Genre)
		if key == "" {
			continue
		}
		weights[key] = math.Max(genre.Score, constants.SelectionConfig.MinWeight) / maxScore
	}
	return weights
}

// GenrePreferences is the per-run view of a profile's genre taste.
type GenrePreferences struct {
	Weights   map[string]float64
	Set       map[string]struct{}
	Preferred []string
	GenreIDs  []int
}

func NewGenrePreferences(p *domain.TasteProfile, genreMap map[int]string) GenrePreferences {
	prefs := GenrePreferences{
		Weights: GenreWeights(p),
		Set:     make(map[string]struct{}),
	}
	if p != nil {
		for i, genre := range p.TopGenres {
			if i >= constants.CollectorConfig.PreferredGenres {
				break
			}
			prefs.Preferred = append(prefs.Preferred, genre.Genre)
		}
	}

	for key := range prefs.Weights {
		prefs.Set[key] = struct{}{}
	}
	if len(prefs.Set) == 0 {
		for _, genre := range prefs.Preferred {
			if key := util.NormalizeTitle(genre); key != "" {
				prefs.Set[key] = struct{}{}
			}
		}
	}

	prefs.GenreIDs = MatchGenreIDs(prefs.Preferred, genreMap)
	return prefs
}

// MatchGenreIDs resolves free-form genre labels to taxonomy ids. A label matches
// when either normalized form contains the other. Ids keep label order.
func MatchGenreIDs(preferred []string, genreMap map[int]string) []int {
	ids := make([]int, 0, len(genreMap))
	for id := range genreMap {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	normalized := make(map[int]string, len(genreMap))
	for _, id := range ids {
		normalized[id] = util.NormalizeTitle(genreMap[id])
	}

	matched := make([]int, 0)
	seen := make(map[int]struct{})
	for _, label := range preferred {
		pref := util.NormalizeTitle(label)
		if pref == "" {
			continue
		}
		for _, id := range ids {
			name := normalized[id]
			if name == "" {
				continue
			}
			if !strings.Contains(name, pref) && !strings.Contains(pref, name) {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			matched = append(matched, id)
		}
	}
	return matched
}

// SharedGenres returns the display names of an item's genres that belong to the
// preferred set, deduplicated by normalized name.
func SharedGenres(genreIDs []int, genreMap map[int]string, preferred map[string]struct{}) []string {
	if len(genreIDs) == 0 || len(preferred) == 0 {
		return nil
	}
	shared := make([]string, 0, len(genreIDs))
	seen := make(map[string]struct{}, len(genreIDs))
	for _, id := range genreIDs {
		name, ok := genreMap[id]
		if !ok || name == "" {
			continue
		}
		key := util.NormalizeTitle(name)
		if _, ok := preferred[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		shared = append(shared, name)
	}
	return shared
}

// GenreAffinity is the mean positive weight of the shared genres.
func GenreAffinity(shared []string, weights map[string]float64) float64 {
	if len(shared) == 0 || len(weights) == 0 {
		return 0
	}
	sum := 0.0
	count := 0
	for _, name := range shared {
		if weight := weights[util.NormalizeTitle(name)]; weight > 0 {
			sum += weight
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func seedScore(seed domain.SeedMovie, item gateway.TMDBMovie, shared int, affinity float64) float64 {
	return seed.Rating*0.7 +
		item.VoteAverage*0.9 +
		math.Min(float64(item.VoteCount)/4000, 2.5) +
		float64(shared)*1.8 +
		affinity*2.2
}

func discoverScore(item gateway.TMDBMovie, shared int, affinity float64) float64 {
	return item.VoteAverage*0.9 +
		math.Min(float64(item.VoteCount)/5000, 2.0) +
		float64(shared)*2.0 +
		affinity*2.4
}

func queryScore(item gateway.TMDBMovie, shared int, affinity, bonus float64) float64 {
	return item.VoteAverage*1.25 +
		math.Min(float64(item.VoteCount)/4500, 2.2) +
		affinity*1.6 +
		float64(shared)*0.7 +
		bonus +
		2.5
}

// queryBonus rewards a title match, a direct term match and each semantic hit.
func queryBonus(titleKey, termKey string, direct bool, semantic int) float64 {
	bonus := float64(semantic) * 0.9
	if titleKey != "" && containsEither(titleKey, termKey) {
		bonus += 1.8
	}
	if direct {
		bonus += 1.4
	}
	return bonus
}

func fallbackScore(rating float64, votes int, hintMatched bool) float64 {
	score := rating*1.2 + math.Min(float64(votes)/5000, 1.5)
	if hintMatched {
		score += 2.2
	}
	return score
}

func sharedGenresReason(shared []string) string {
	if len(shared) == 0 {
		return reasonCloseProfile
	}
	return reasonSharedGenres + strings.Join(headStrings(shared, constants.StringLimits.ReasonSharedGenres), ", ")
}

func queryReason(term string, shared []string) string {
	reason := reasonByQuery + term
	if len(shared) > 0 {
		reason += reasonQueryGenres + strings.Join(headStrings(shared, constants.StringLimits.QueryReasonGenres), ", ")
	}
	return reason
}

func headStrings(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// candidateFromTMDB builds a candidate from a catalog list item. Items without
// an id or title are dropped.
func candidateFromTMDB(item gateway.TMDBMovie, genreMap map[int]string, score float64, reason string) (domain.CandidateMovie, bool) {
	title := strings.TrimSpace(item.Title)
	if item.ID == 0 || title == "" {
		return domain.CandidateMovie{}, false
	}

	genres := make([]string, 0, len(item.GenreIDs))
	for _, id := range item.GenreIDs {
		if name, ok := genreMap[id]; ok && name != "" {
			genres = append(genres, name)
		}
	}

	return domain.CandidateMovie{
		ProviderID:    fmt.Sprintf("tmdb:%d", item.ID),
		Source:        domain.SourceTMDB,
		Title:         title,
		Year:          item.Year(),
		PrimaryRating: item.VoteAverage,
		VoteCount:     item.VoteCount,
		Genres:        genres,
		Score:         score,
		Reason:        reason,
		Plot:          strings.TrimSpace(item.Overview),
		PosterURL:     item.PosterURL(),
	}, true
}

// candidatePool merges candidates by provider id, keeping the higher score.
type candidatePool struct {
	byID  map[string]int
	items []domain.CandidateMovie
}

func newCandidatePool() *candidatePool {
	return &candidatePool{byID: make(map[string]int)}
}

func (p *candidatePool) Add(candidate domain.CandidateMovie) {
	if idx, ok := p.byID[candidate.ProviderID]; ok {
		if candidate.Score > p.items[idx].Score {
			p.items[idx] = candidate
		}
		return
	}
	p.byID[candidate.ProviderID] = len(p.items)
	p.items = append(p.items, candidate)
}

func (p *candidatePool) Len() int {
	return len(p.items)
}

// HasTitle reports whether a candidate with the same normalized title exists.
func (p *candidatePool) HasTitle(normalized string) bool {
	for _, item := range p.items {
		if util.NormalizeTitle(item.Title) == normalized {
			return true
		}
	}
	return false
}

// Ranked returns the merged candidates ordered by descending score.
func (p *candidatePool) Ranked() []domain.CandidateMovie {
	out := domain.CloneCandidates(p.items)
	Rank(out)
	return out
}

// Merge combines candidate lists, resolving equal provider ids to the
// higher-scoring instance, and returns them ranked.
func Merge(lists ...[]domain.CandidateMovie) []domain.CandidateMovie {
	pool := newCandidatePool()
	for _, list := range lists {
		for _, item := range list {
			pool.Add(item)
		}
	}
	return pool.Ranked()
}

// Rank sorts candidates by descending score; ties keep their current order.
func Rank(items []domain.CandidateMovie) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
