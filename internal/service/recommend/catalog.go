// Package recommend collects, scores, enriches and selects movie candidates
// for a taste profile.
package recommend

import (
	"context"

	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
)

// PrimaryCatalog is the metadata provider with genre taxonomy, search,
// per-title recommendations and discovery.
type PrimaryCatalog interface {
	Enabled() bool
	Genres(ctx context.Context) (map[int]string, error)
	SearchMovies(ctx context.Context, query string, year int) ([]gateway.TMDBMovie, error)
	Recommendations(ctx context.Context, movieID int) ([]gateway.TMDBMovie, error)
	Discover(ctx context.Context, filter gateway.DiscoverFilter) ([]gateway.TMDBMovie, error)
	Details(ctx context.Context, movieID int) (*gateway.TMDBMovie, error)
}

// FallbackCatalog is the regional search provider used when the primary one is
// unavailable or sparse.
type FallbackCatalog interface {
	Enabled() bool
	Search(ctx context.Context, query string, limit int) ([]gateway.KinopoiskDoc, error)
}

// RatingsCatalog resolves a secondary rating and plot by title and year.
// A nil result means "not found".
type RatingsCatalog interface {
	Enabled() bool
	Lookup(ctx context.Context, title string, year int) (*gateway.OMDbResult, error)
}

// Config holds the collection tunables exposed through configuration.
type Config struct {
	PoolSize      int
	EnrichLimit   int
	RandomTopPool int
	MinYear       int
}
