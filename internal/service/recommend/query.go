package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/util"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

// queryPlan is the search expansion of one free-text request.
type queryPlan struct {
	searches []string
	keys     []string
}

func newQueryPlan(query string) queryPlan {
	terms := util.QueryTerms(query, constants.CollectorConfig.QueryMaxTerms)
	searches := append([]string{query}, terms...)
	if len(searches) > constants.CollectorConfig.QueryMaxSearches {
		searches = searches[:constants.CollectorConfig.QueryMaxSearches]
	}

	keys := make([]string, 0, len(terms))
	for _, term := range util.ExpandSynonyms(terms) {
		if key := util.NormalizeTitle(term); key != "" {
			keys = append(keys, key)
		}
	}
	return queryPlan{searches: searches, keys: keys}
}

// hits counts expanded terms found in blob.
func (q queryPlan) hits(blob string) int {
	count := 0
	for _, key := range q.keys {
		if strings.Contains(blob, key) {
			count++
		}
	}
	return count
}

// accepts reports whether blob mentions the search term or any expanded term.
func (q queryPlan) accepts(blob, termKey string) bool {
	if termKey != "" && strings.Contains(blob, termKey) {
		return true
	}
	return q.hits(blob) > 0
}

func tmdbQueryBlob(item gateway.TMDBMovie, genreMap map[int]string) string {
	parts := []string{item.Title, item.OriginalTitle, item.Overview}
	names := make([]string, 0, len(item.GenreIDs))
	for _, id := range item.GenreIDs {
		if name, ok := genreMap[id]; ok {
			names = append(names, name)
		}
	}
	parts = append(parts, strings.Join(names, ", "))
	return util.NormalizeTitle(strings.Join(parts, " "))
}

func candidateBlob(item domain.CandidateMovie) string {
	return util.NormalizeTitle(item.Title + " " + item.Plot + " " + strings.Join(item.Genres, ", "))
}

// CollectForQuery returns candidates relevant to a free-text request. An item
// is kept only when its title, overview or genres mention a search term or one
// of its synonyms; nothing relevant yields an empty list, never a guess.
func (c *Collector) CollectForQuery(ctx context.Context, p *domain.TasteProfile, query string, limit int) ([]domain.CandidateMovie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.CandidateMovie{}, nil
	}
	if p == nil {
		p = &domain.TasteProfile{}
	}
	limit = c.poolSize(limit)
	log := c.logger.With(zap.String("run_id", uuid.NewString()), zap.String("mode", "query"))

	if !c.primaryEnabled() && !c.fallbackEnabled() {
		return nil, fmt.Errorf("query collection: %w", errors.ErrRecommendationsUnavailable)
	}

	plan := newQueryPlan(query)
	candidates := newCandidatePool()
	stats := &callStats{}

	if c.primaryEnabled() {
		c.searchPrimary(ctx, log, p, plan, candidates, stats)
	}

	fallbackAvailable := false
	if c.fallbackEnabled() && candidates.Len() < max(constants.CollectorConfig.QueryMinCandidates, limit/3) {
		fallbackAvailable = c.searchFallback(ctx, log, p, plan, candidates)
	}

	ranked := candidates.Ranked()
	c.enricher.Enrich(ctx, ranked, min(c.cfg.EnrichLimit, len(ranked)))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if len(ranked) == 0 && stats.allFailed() && !fallbackAvailable {
		return nil, fmt.Errorf("query collection: %w", errors.ErrRecommendationsUnavailable)
	}
	log.Info("Query candidates collected",
		zap.String("query", query),
		zap.Int("searches", len(plan.searches)),
		zap.Int("candidates", len(ranked)),
	)
	return ranked, nil
}

func (c *Collector) searchPrimary(
	ctx context.Context,
	log *zap.Logger,
	p *domain.TasteProfile,
	plan queryPlan,
	candidates *candidatePool,
	stats *callStats,
) {
	genreMap, err := c.primary.Genres(ctx)
	if err != nil {
		log.Warn("Genre taxonomy unavailable for query", zap.Error(err))
		genreMap = map[int]string{}
	}
	prefs := NewGenrePreferences(p, genreMap)

	seen := make(map[string]struct{}, len(plan.searches))
	for _, term := range plan.searches {
		if ctx.Err() != nil {
			return
		}
		termKey := util.NormalizeTitle(term)
		if termKey == "" {
			continue
		}
		if _, dup := seen[termKey]; dup {
			continue
		}
		seen[termKey] = struct{}{}

		results, err := c.primary.SearchMovies(ctx, term, 0)
		stats.track(err)
		if err != nil {
			log.Warn("Query search failed", zap.String("term", term), zap.Error(err))
			continue
		}

		for i, item := range results {
			if i >= constants.CollectorConfig.QueryResultsEach {
				break
			}
			titleKey := util.NormalizeTitle(item.Title)
			if p.HasWatched(titleKey) {
				continue
			}
			blob := tmdbQueryBlob(item, genreMap)
			if blob == "" {
				continue
			}

			direct := strings.Contains(blob, termKey)
			semantic := plan.hits(blob)
			if !direct && semantic == 0 {
				continue
			}

			bonus := queryBonus(titleKey, termKey, direct, semantic)
			shared := SharedGenres(item.GenreIDs, genreMap, prefs.Set)
			affinity := GenreAffinity(shared, prefs.Weights)
			score := queryScore(item, len(shared), affinity, bonus)
			if candidate, ok := candidateFromTMDB(item, genreMap, score, queryReason(term, shared)); ok {
				candidates.Add(candidate)
			}
		}
	}
}

// searchFallback supplements a sparse query result from the regional provider.
// It reports whether any search succeeded.
func (c *Collector) searchFallback(
	ctx context.Context,
	log *zap.Logger,
	p *domain.TasteProfile,
	plan queryPlan,
	candidates *candidatePool,
) bool {
	hint := constants.QueryFallbackGenreHint
	if len(p.TopGenres) > 0 && strings.TrimSpace(p.TopGenres[0].Genre) != "" {
		hint = p.TopGenres[0].Genre
	}

	succeeded := false
	for i, term := range plan.searches {
		if i >= constants.CollectorConfig.QueryFallbackTerms || ctx.Err() != nil {
			break
		}
		docs, err := c.fallback.Search(ctx, term, constants.CollectorConfig.QueryFallbackLimit)
		if err != nil {
			log.Warn("Query fallback search failed", zap.String("term", term), zap.Error(err))
			continue
		}
		succeeded = true

		termKey := util.NormalizeTitle(term)
		for _, candidate := range kinopoiskCandidates(docs, p, hint) {
			if !plan.accepts(candidateBlob(candidate), termKey) {
				continue
			}
			if candidates.HasTitle(util.NormalizeTitle(candidate.Title)) {
				continue
			}
			candidate.Reason = reasonByQuery + term
			candidates.Add(candidate)
		}
	}
	return succeeded
}
