package recommend

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/cache"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// SharedStore is an optional cache shared between processes (Redis).
type SharedStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type detailsEntry struct {
	Found   bool                 `json:"found"`
	Details *domain.MovieDetails `json:"details,omitempty"`
}

// DetailsService resolves a title to a merged metadata record across all
// three providers.
type DetailsService struct {
	primary  PrimaryCatalog
	ratings  RatingsCatalog
	fallback FallbackCatalog
	local    *cache.TTLCache[string, detailsEntry]
	shared   SharedStore
	group    singleflight.Group
	logger   *zap.Logger
}

func NewDetailsService(primary PrimaryCatalog, ratings RatingsCatalog, fallback FallbackCatalog, shared SharedStore, logger *zap.Logger) *DetailsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailsService{
		primary:  primary,
		ratings:  ratings,
		fallback: fallback,
		local:    cache.NewTTLCache[string, detailsEntry](constants.CacheTTL.DetailsFound, constants.CacheLimits.DetailsEntries),
		shared:   shared,
		logger:   logger,
	}
}

// Lookup merges primary details (fill-only), secondary details (overwrite) and,
// when plot, genre or poster are still missing, regional details (fill-only).
// It returns nil when no provider knows the title.
func (s *DetailsService) Lookup(ctx context.Context, title string, year int) (*domain.MovieDetails, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	key := "details:" + gateway.LookupKey(title, year)

	if entry, ok := s.local.Get(key); ok {
		return entry.copyDetails(), nil
	}
	if entry, ok := s.sharedGet(ctx, key); ok {
		s.local.SetWithTTL(key, entry, entryTTL(entry, false))
		return entry.copyDetails(), nil
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		details, failed := s.lookup(ctx, title, year)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entry := detailsEntry{Found: details != nil, Details: details}
		ttl := entryTTL(entry, failed)
		s.local.SetWithTTL(key, entry, ttl)
		if !failed {
			s.sharedSet(ctx, key, entry, ttl)
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	entry, _ := value.(detailsEntry)
	return entry.copyDetails(), nil
}

func (e detailsEntry) copyDetails() *domain.MovieDetails {
	if !e.Found || e.Details == nil {
		return nil
	}
	out := *e.Details
	return &out
}

func entryTTL(entry detailsEntry, failed bool) time.Duration {
	switch {
	case entry.Found:
		return constants.CacheTTL.DetailsFound
	case failed:
		return constants.CacheTTL.DetailsFailed
	default:
		return constants.CacheTTL.DetailsNotFound
	}
}

func (s *DetailsService) sharedGet(ctx context.Context, key string) (detailsEntry, bool) {
	if s.shared == nil {
		return detailsEntry{}, false
	}
	var entry detailsEntry
	found, err := s.shared.Get(ctx, key, &entry)
	if err != nil {
		s.logger.Warn("Shared details cache read failed", zap.String("key", key), zap.Error(err))
		return detailsEntry{}, false
	}
	return entry, found
}

func (s *DetailsService) sharedSet(ctx context.Context, key string, entry detailsEntry, ttl time.Duration) {
	if s.shared == nil {
		return
	}
	if err := s.shared.Set(ctx, key, entry, ttl); err != nil {
		s.logger.Warn("Shared details cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// lookup returns the merged record and whether a provider failed while nothing
// was found.
func (s *DetailsService) lookup(ctx context.Context, title string, year int) (*domain.MovieDetails, bool) {
	result := &domain.MovieDetails{}
	failed := false

	primary, err := s.primaryDetails(ctx, title, year)
	if err != nil {
		failed = true
		s.logger.Warn("Primary details lookup failed", zap.String("title", title), zap.Error(err))
	}
	result.Merge(primary, false)

	if s.ratings != nil && s.ratings.Enabled() {
		secondary, err := s.ratings.Lookup(ctx, title, year)
		if err != nil {
			failed = true
			s.logger.Warn("Secondary details lookup failed", zap.String("title", title), zap.Error(err))
		}
		result.Merge(secondary.Details(), true)
	}

	if result.Plot == "" || result.Genre == "" || result.Poster == "" {
		regional, err := s.fallbackDetails(ctx, title, year)
		if err != nil {
			failed = true
			s.logger.Warn("Regional details lookup failed", zap.String("title", title), zap.Error(err))
		}
		result.Merge(regional, false)
	}

	if result.IsEmpty() {
		return nil, failed
	}
	return result, false
}

func (s *DetailsService) primaryDetails(ctx context.Context, title string, year int) (*domain.MovieDetails, error) {
	if s.primary == nil || !s.primary.Enabled() {
		return nil, nil
	}
	results, err := s.primary.SearchMovies(ctx, title, year)
	if err != nil || len(results) == 0 {
		return nil, err
	}

	best, ok := PickBestSeed(results, title, year)
	if !ok {
		best = results[0]
	}
	if best.ID != 0 {
		if full, err := s.primary.Details(ctx, best.ID); err == nil && full != nil {
			best = *full
		}
	}

	details := &domain.MovieDetails{
		Title:      strings.TrimSpace(best.Title),
		Genre:      strings.Join(best.GenreNames(), ", "),
		Type:       "movie",
		Plot:       strings.TrimSpace(best.Overview),
		Poster:     best.PosterURL(),
		TMDBRating: strconv.FormatFloat(best.VoteAverage, 'f', 1, 64),
	}
	if y := best.Year(); y > 0 {
		details.Year = strconv.Itoa(y)
	}
	return details, nil
}

func (s *DetailsService) fallbackDetails(ctx context.Context, title string, year int) (*domain.MovieDetails, error) {
	if s.fallback == nil || !s.fallback.Enabled() {
		return nil, nil
	}
	docs, err := s.fallback.Search(ctx, title, constants.CollectorConfig.SeedSearchWindow)
	if err != nil || len(docs) == 0 {
		return nil, err
	}

	titleKey := util.NormalizeTitle(title)
	bestIdx := -1
	bestScore := -1.0
	for i, doc := range docs {
		if i >= constants.CollectorConfig.SeedSearchWindow {
			break
		}
		if score := KinopoiskDocScore(doc, titleKey, year); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil, nil
	}
	return docs[bestIdx].Details(), nil
}
