package recommend

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
)

// Request describes one recommendation ask.
type Request struct {
	Query   string
	Strict  bool
	Exclude []string
}

// Advisor is the entry point used by the chat layer: it runs a collection,
// applies the final filters and performs single random picks.
type Advisor struct {
	collector *Collector
	details   *DetailsService
	cfg       Config
	mu        sync.Mutex
	rng       *rand.Rand
	logger    *zap.Logger
}

// NewAdvisor wires the advisor. rng may be nil for a time-seeded source.
func NewAdvisor(collector *Collector, details *DetailsService, cfg Config, rng *rand.Rand, logger *zap.Logger) *Advisor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinYear <= 0 {
		cfg.MinYear = constants.SelectionConfig.MinRecommended
	}
	if cfg.RandomTopPool < 1 {
		cfg.RandomTopPool = constants.SelectionConfig.RandomTopPool
	}
	return &Advisor{
		collector: collector,
		details:   details,
		cfg:       cfg,
		rng:       rng,
		logger:    logger,
	}
}

// Recommend returns the filtered candidate list for a request. Free-text
// requests go through query collection and the relevance gate.
func (a *Advisor) Recommend(ctx context.Context, p *domain.TasteProfile, req Request) ([]domain.CandidateMovie, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		items, err := a.collector.Collect(ctx, p, 0)
		if err != nil {
			return nil, err
		}
		return ExcludeTitles(FilterByMinYear(items, a.cfg.MinYear), req.Exclude), nil
	}

	items, err := a.collector.CollectForQuery(ctx, p, query, 0)
	if err != nil {
		return nil, err
	}
	filtered := FilterForQuery(items, QueryFilter{
		Query:   query,
		Strict:  req.Strict,
		MinYear: a.cfg.MinYear,
	})
	return ExcludeTitles(filtered, req.Exclude), nil
}

// PickRandom draws one candidate, avoiding recently suggested titles unless
// that would leave nothing to pick. It returns nil when the pool is empty.
func (a *Advisor) PickRandom(ctx context.Context, p *domain.TasteProfile, recent []string) (*domain.CandidateMovie, error) {
	items, err := a.collector.Collect(ctx, p, 0)
	if err != nil {
		return nil, err
	}
	items = FilterByMinYear(items, a.cfg.MinYear)

	pool := ExcludeTitles(items, recent)
	if len(pool) == 0 {
		pool = items
	}

	a.mu.Lock()
	picked, ok := PickWeighted(pool, a.cfg.RandomTopPool, a.rng)
	a.mu.Unlock()
	if !ok {
		return nil, nil
	}

	a.logger.Info("Random candidate picked",
		zap.String("title", picked.Title),
		zap.Float64("score", picked.Score),
		zap.Int("pool", len(pool)),
	)
	return &picked, nil
}

// Details resolves merged metadata for a title.
func (a *Advisor) Details(ctx context.Context, title string, year int) (*domain.MovieDetails, error) {
	if a.details == nil {
		return nil, nil
	}
	return a.details.Lookup(ctx, title, year)
}
