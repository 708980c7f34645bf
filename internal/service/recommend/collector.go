package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/cache"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/service/profile"
	"github.com/kapu/movie-advisor-bot/internal/util"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

// PoolKey identifies a cached candidate pool.
type PoolKey struct {
	Fingerprint uint64
	Limit       int
}

// PoolCache holds candidate pools per profile fingerprint and size.
type PoolCache = cache.TTLCache[PoolKey, []domain.CandidateMovie]

// NewPoolCache creates the candidate pool cache with its default policy.
func NewPoolCache() *PoolCache {
	return cache.NewTTLCache[PoolKey, []domain.CandidateMovie](constants.CacheTTL.CandidatePool, constants.CacheLimits.CandidatePools)
}

// Collector builds ranked candidate pools from the catalog providers.
type Collector struct {
	primary  PrimaryCatalog
	fallback FallbackCatalog
	enricher *Enricher
	pools    *PoolCache
	cfg      Config
	logger   *zap.Logger
}

func NewCollector(primary PrimaryCatalog, fallback FallbackCatalog, enricher *Enricher, pools *PoolCache, cfg Config, logger *zap.Logger) *Collector {
	if pools == nil {
		pools = NewPoolCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolSize < 1 {
		cfg.PoolSize = constants.CollectorConfig.PoolSize
	}
	if cfg.EnrichLimit < 0 {
		cfg.EnrichLimit = constants.CollectorConfig.EnrichLimit
	}
	return &Collector{
		primary:  primary,
		fallback: fallback,
		enricher: enricher,
		pools:    pools,
		cfg:      cfg,
		logger:   logger,
	}
}

// callStats tracks primary provider calls so a run can tell "nothing matched"
// apart from "the provider was down".
type callStats struct {
	calls    int
	failures int
}

func (s *callStats) track(err error) {
	s.calls++
	if err != nil && !errors.IsPermanent(err) {
		s.failures++
	}
}

func (s *callStats) allFailed() bool {
	return s.calls > 0 && s.failures == s.calls
}

func (c *Collector) primaryEnabled() bool {
	return c.primary != nil && c.primary.Enabled()
}

func (c *Collector) fallbackEnabled() bool {
	return c.fallback != nil && c.fallback.Enabled()
}

func (c *Collector) poolSize(limit int) int {
	if limit < 1 {
		return c.cfg.PoolSize
	}
	return limit
}

// Collect returns up to limit candidates for an open-ended recommendation. The
// result never contains a watched title. Provider failures degrade to smaller
// lists; errors.ErrRecommendationsUnavailable is returned only when no provider
// produced anything.
func (c *Collector) Collect(ctx context.Context, p *domain.TasteProfile, limit int) ([]domain.CandidateMovie, error) {
	if p == nil {
		p = &domain.TasteProfile{}
	}
	limit = c.poolSize(limit)
	log := c.logger.With(zap.String("run_id", uuid.NewString()), zap.String("mode", "profile"))

	if !c.primaryEnabled() {
		log.Info("Primary catalog disabled, using fallback")
		return c.fallbackOrUnavailable(ctx, log, p, limit)
	}

	key := PoolKey{Fingerprint: profile.Fingerprint(p), Limit: limit}
	if cached, ok := c.pools.Get(key); ok {
		log.Debug("Candidate pool cache hit", zap.Int("candidates", len(cached)))
		return domain.CloneCandidates(cached), nil
	}

	genreMap, err := c.primary.Genres(ctx)
	if err != nil {
		log.Warn("Genre taxonomy unavailable, using fallback", zap.Error(err))
		return c.fallbackOrUnavailable(ctx, log, p, limit)
	}

	prefs := NewGenrePreferences(p, genreMap)
	candidates := newCandidatePool()
	stats := &callStats{}

	c.expandSeeds(ctx, log, p, prefs, genreMap, candidates, stats)
	if candidates.Len() < constants.CollectorConfig.DiscoverThreshold {
		c.discover(ctx, log, p, prefs, genreMap, candidates, stats)
	}

	ranked := candidates.Ranked()
	c.enricher.Enrich(ctx, ranked, min(c.cfg.EnrichLimit, len(ranked)))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if len(ranked) == 0 {
		fallback, available := c.collectFallback(ctx, log, p, limit)
		if len(fallback) > 0 {
			c.pools.Set(key, domain.CloneCandidates(fallback))
			return fallback, nil
		}
		if stats.allFailed() && !available {
			return nil, fmt.Errorf("profile collection: %w", errors.ErrRecommendationsUnavailable)
		}
		log.Info("No candidates matched the profile")
		return []domain.CandidateMovie{}, nil
	}

	c.pools.Set(key, domain.CloneCandidates(ranked))
	log.Info("Candidates collected",
		zap.Int("candidates", len(ranked)),
		zap.Int("primary_calls", stats.calls),
		zap.Int("primary_failures", stats.failures),
	)
	return ranked, nil
}

func (c *Collector) fallbackOrUnavailable(ctx context.Context, log *zap.Logger, p *domain.TasteProfile, limit int) ([]domain.CandidateMovie, error) {
	items, available := c.collectFallback(ctx, log, p, limit)
	if !available {
		return nil, fmt.Errorf("fallback collection: %w", errors.ErrRecommendationsUnavailable)
	}
	return items, nil
}

func (c *Collector) expandSeeds(
	ctx context.Context,
	log *zap.Logger,
	p *domain.TasteProfile,
	prefs GenrePreferences,
	genreMap map[int]string,
	candidates *candidatePool,
	stats *callStats,
) {
	for _, seed := range SelectSeeds(p.Favorites) {
		if ctx.Err() != nil {
			return
		}

		results, err := c.primary.SearchMovies(ctx, seed.Title, seed.Year)
		stats.track(err)
		if err != nil {
			log.Warn("Seed search failed", zap.String("seed", seed.Title), zap.Error(err))
			continue
		}
		match, ok := PickBestSeed(results, seed.Title, seed.Year)
		if !ok {
			log.Debug("No confident match for seed", zap.String("seed", seed.Title), zap.Int("results", len(results)))
			continue
		}

		recommended, err := c.primary.Recommendations(ctx, match.ID)
		stats.track(err)
		if err != nil {
			log.Warn("Seed recommendations failed", zap.String("seed", seed.Title), zap.Int("movie_id", match.ID), zap.Error(err))
			continue
		}

		for i, item := range recommended {
			if i >= constants.CollectorConfig.RecommendationsEach {
				break
			}
			if p.HasWatched(util.NormalizeTitle(item.Title)) {
				continue
			}
			shared := SharedGenres(item.GenreIDs, genreMap, prefs.Set)
			if len(prefs.Set) > 0 && len(shared) == 0 {
				continue
			}
			affinity := GenreAffinity(shared, prefs.Weights)
			score := seedScore(seed, item, len(shared), affinity)
			if candidate, ok := candidateFromTMDB(item, genreMap, score, sharedGenresReason(shared)); ok {
				candidates.Add(candidate)
			}
		}
	}
}

func (c *Collector) discover(
	ctx context.Context,
	log *zap.Logger,
	p *domain.TasteProfile,
	prefs GenrePreferences,
	genreMap map[int]string,
	candidates *candidatePool,
	stats *callStats,
) {
	if ctx.Err() != nil {
		return
	}
	filter := gateway.DiscoverFilter{
		GenreIDs: headInts(prefs.GenreIDs, constants.CollectorConfig.DiscoverGenreIDs),
		MinVotes: constants.CollectorConfig.DiscoverMinVotes,
		Page:     1,
	}
	results, err := c.primary.Discover(ctx, filter)
	stats.track(err)
	if err != nil {
		log.Warn("Discovery failed", zap.Error(err))
		return
	}

	for _, item := range results {
		if p.HasWatched(util.NormalizeTitle(item.Title)) {
			continue
		}
		shared := SharedGenres(item.GenreIDs, genreMap, prefs.Set)
		if len(prefs.Set) > 0 && len(shared) == 0 {
			continue
		}
		affinity := GenreAffinity(shared, prefs.Weights)
		score := discoverScore(item, len(shared), affinity)
		if candidate, ok := candidateFromTMDB(item, genreMap, score, sharedGenresReason(shared)); ok {
			candidates.Add(candidate)
		}
	}
}

func headInts(items []int, n int) []int {
	if len(items) > n {
		return items[:n]
	}
	return items
}
