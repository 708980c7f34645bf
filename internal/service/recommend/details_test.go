package recommend

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
)

type fakeShared struct {
	mu      sync.Mutex
	entries map[string]detailsEntry
	ttls    map[string]time.Duration
}

func newFakeShared() *fakeShared {
	return &fakeShared{entries: map[string]detailsEntry{}, ttls: map[string]time.Duration{}}
}

func (f *fakeShared) Get(_ context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	*dest.(*detailsEntry) = entry
	return true, nil
}

func (f *fakeShared) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value.(detailsEntry)
	f.ttls[key] = ttl
	return nil
}

func inceptionCatalog() *fakePrimary {
	primary := newFakePrimary()
	primary.search["inception"] = []gateway.TMDBMovie{movie(27205, "Inception", "2010-07-15", 8.4, 35000)}
	primary.details[27205] = &gateway.TMDBMovie{
		ID:          27205,
		Title:       "Inception",
		ReleaseDate: "2010-07-15",
		Overview:    "tmdb plot",
		VoteAverage: 8.4,
		Genres:      []gateway.TMDBGenre{{ID: 878, Name: "Science Fiction"}, {ID: 28, Name: "Action"}},
		PosterPath:  "/p.jpg",
	}
	return primary
}

func TestDetailsMergesProviders(t *testing.T) {
	primary := inceptionCatalog()
	ratings := &fakeRatings{enabled: true, results: map[string]*gateway.OMDbResult{
		"inception": {
			Response: "True", Title: "Inception", Year: "2010", Genre: "Action, Sci-Fi",
			Type: "movie", IMDbRating: "8.8", Plot: "omdb plot", Poster: "N/A",
		},
	}}
	fallback := &fakeFallback{enabled: true}
	shared := newFakeShared()
	service := NewDetailsService(primary, ratings, fallback, shared, zap.NewNop())
	ctx := context.Background()

	details, err := service.Lookup(ctx, "Inception", 2010)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	want := domain.MovieDetails{
		Title:      "Inception",
		Year:       "2010",
		Genre:      "Action, Sci-Fi",
		Type:       "movie",
		Rating:     "8.8",
		Plot:       "omdb plot",
		Poster:     "https://image.tmdb.org/t/p/w500/p.jpg",
		TMDBRating: "8.4",
	}
	if details == nil || *details != want {
		t.Fatalf("expected %+v, got %+v", want, details)
	}
	if fallback.Calls() != 0 {
		t.Errorf("expected no regional lookup for a complete record, got %d", fallback.Calls())
	}
	if len(shared.entries) != 1 {
		t.Errorf("expected the record in the shared cache, got %d entries", len(shared.entries))
	}

	details.Plot = "mutated"
	primaryCalls, ratingCalls := primary.TotalCalls(), ratings.Calls()

	again, err := service.Lookup(ctx, "inception", 2010)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if again.Plot != "omdb plot" {
		t.Errorf("cached record was mutated: %q", again.Plot)
	}
	if primary.TotalCalls() != primaryCalls || ratings.Calls() != ratingCalls {
		t.Error("expected second lookup to be served from cache")
	}
}

func TestDetailsFillsFromRegionalProvider(t *testing.T) {
	primary := newFakePrimary()
	primary.enabled = false
	fallback := &fakeFallback{enabled: true, docs: map[string][]gateway.KinopoiskDoc{
		"dune": {{
			ID: 1, Name: "Дюна", EnName: "Dune", Year: 2021, Type: "movie",
			Description: "Desert planet.",
			Genres:      []gateway.KinopoiskGenre{{Name: "фантастика"}},
			Poster:      &gateway.KinopoiskPoster{URL: "https://kp/dune.jpg"},
			Rating:      gateway.KinopoiskRating{KP: 7.9},
		}},
	}}
	service := NewDetailsService(primary, &fakeRatings{}, fallback, nil, zap.NewNop())

	details, err := service.Lookup(context.Background(), "Dune", 2021)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if details == nil {
		t.Fatal("expected details")
	}
	if details.Title != "Дюна" || details.Year != "2021" || details.Genre != "фантастика" {
		t.Errorf("unexpected details: %+v", details)
	}
	if details.Plot != "Desert planet." || details.Poster != "https://kp/dune.jpg" || details.Rating != "7.9" {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestDetailsNotFoundIsCached(t *testing.T) {
	ratings := &fakeRatings{enabled: true}
	service := NewDetailsService(newFakePrimary(), ratings, &fakeFallback{enabled: true}, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		details, err := service.Lookup(ctx, "Nonexistent Movie", 0)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if details != nil {
			t.Fatalf("expected nil details, got %+v", details)
		}
	}
	if ratings.Calls() != 1 {
		t.Errorf("expected a single provider lookup, got %d", ratings.Calls())
	}
}

func TestDetailsFailuresStayLocal(t *testing.T) {
	primary := newFakePrimary()
	primary.enabled = false
	ratings := &fakeRatings{enabled: true, errs: map[string]error{"arrival": stderrors.New("timeout")}}
	shared := newFakeShared()
	service := NewDetailsService(primary, ratings, nil, shared, zap.NewNop())

	details, err := service.Lookup(context.Background(), "Arrival", 2016)
	if err != nil || details != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", details, err)
	}
	if len(shared.entries) != 0 {
		t.Errorf("failed lookup was shared: %v", shared.entries)
	}
}

func TestDetailsServedFromSharedCache(t *testing.T) {
	shared := newFakeShared()
	key := "details:" + gateway.LookupKey("Arrival", 2016)
	shared.entries[key] = detailsEntry{Found: true, Details: &domain.MovieDetails{Title: "Arrival", Rating: "7.9"}}
	primary := newFakePrimary()
	ratings := &fakeRatings{enabled: true}
	service := NewDetailsService(primary, ratings, nil, shared, zap.NewNop())

	details, err := service.Lookup(context.Background(), "Arrival", 2016)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if details == nil || details.Rating != "7.9" {
		t.Fatalf("expected shared record, got %+v", details)
	}
	if primary.TotalCalls() != 0 || ratings.Calls() != 0 {
		t.Error("expected no provider calls on a shared cache hit")
	}
}

func TestDetailsEmptyTitle(t *testing.T) {
	service := NewDetailsService(nil, nil, nil, nil, nil)
	details, err := service.Lookup(context.Background(), "  ", 0)
	if err != nil || details != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", details, err)
	}
}
