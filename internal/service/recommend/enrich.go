package recommend

import (
	"context"
	stderrors "errors"
	"math"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// Enricher attaches secondary ratings, plots and posters to the top of a
// ranked list.
type Enricher struct {
	ratings RatingsCatalog
	workers int
	sink    domain.ErrorSink
	logger  *zap.Logger
}

func NewEnricher(ratings RatingsCatalog, workers int, sink domain.ErrorSink, logger *zap.Logger) *Enricher {
	if workers < 1 {
		workers = constants.CollectorConfig.EnrichWorkers
	}
	if sink == nil {
		sink = domain.NopErrorSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		ratings: ratings,
		workers: workers,
		sink:    sink,
		logger:  logger,
	}
}

// Enrich looks up the first limit items in parallel, updates them in place and
// re-ranks the whole slice. A failed lookup leaves its item unchanged.
func (e *Enricher) Enrich(ctx context.Context, items []domain.CandidateMovie, limit int) {
	if e == nil || e.ratings == nil || !e.ratings.Enabled() {
		return
	}
	if limit > len(items) {
		limit = len(items)
	}
	if limit <= 0 {
		return
	}

	top := items[:limit]
	p := pool.New().WithMaxGoroutines(min(e.workers, len(top)))
	for i := range top {
		item := &top[i]
		p.Go(func() {
			e.enrichOne(ctx, item)
		})
	}
	p.Wait()

	Rank(items)
}

func (e *Enricher) enrichOne(ctx context.Context, item *domain.CandidateMovie) {
	result, err := e.ratings.Lookup(ctx, item.Title, item.Year)
	if err != nil {
		if ctx.Err() != nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return
		}
		e.logger.Warn("Enrichment lookup failed",
			zap.String("title", item.Title),
			zap.Int("year", item.Year),
			zap.Error(err),
		)
		e.sink.Record(gateway.ProviderOMDb, err)
		return
	}
	applyRatings(item, result)
}

// applyRatings boosts the score by up to 0.8 for the secondary rating and fills
// plot and poster only where the candidate has none.
func applyRatings(item *domain.CandidateMovie, result *gateway.OMDbResult) {
	if result == nil {
		return
	}
	if rating := result.Rating(); rating > 0 {
		item.SecondaryRating = rating
		item.Score += math.Min(rating/10, 1) * 0.8
	}
	if strings.TrimSpace(item.Plot) == "" && !util.IsNotAvailable(result.Plot) {
		item.Plot = strings.TrimSpace(result.Plot)
	}
	if strings.TrimSpace(item.PosterURL) == "" && !util.IsNotAvailable(result.Poster) {
		item.PosterURL = strings.TrimSpace(result.Poster)
	}
}
