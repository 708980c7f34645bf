package recommend

import (
	"context"
	"strings"
	"sync"

	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

type fakePrimary struct {
	enabled   bool
	genres    map[int]string
	genresErr error
	search    map[string][]gateway.TMDBMovie
	searchErr error
	recs      map[int][]gateway.TMDBMovie
	discover  []gateway.TMDBMovie
	details   map[int]*gateway.TMDBMovie

	mu           sync.Mutex
	calls        map[string]int
	queries      []string
	lastDiscover gateway.DiscoverFilter
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{
		enabled: true,
		genres:  map[int]string{},
		search:  map[string][]gateway.TMDBMovie{},
		recs:    map[int][]gateway.TMDBMovie{},
		details: map[int]*gateway.TMDBMovie{},
		calls:   map[string]int{},
	}
}

func (f *fakePrimary) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakePrimary) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakePrimary) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakePrimary) Enabled() bool { return f.enabled }

func (f *fakePrimary) Genres(context.Context) (map[int]string, error) {
	f.count("genres")
	if f.genresErr != nil {
		return nil, f.genresErr
	}
	out := make(map[int]string, len(f.genres))
	for id, name := range f.genres {
		out[id] = name
	}
	return out, nil
}

func (f *fakePrimary) SearchMovies(_ context.Context, query string, _ int) ([]gateway.TMDBMovie, error) {
	f.count("search")
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search[util.NormalizeTitle(query)], nil
}

func (f *fakePrimary) Recommendations(_ context.Context, movieID int) ([]gateway.TMDBMovie, error) {
	f.count("recommendations")
	return f.recs[movieID], nil
}

func (f *fakePrimary) Discover(_ context.Context, filter gateway.DiscoverFilter) ([]gateway.TMDBMovie, error) {
	f.count("discover")
	f.mu.Lock()
	f.lastDiscover = filter
	f.mu.Unlock()
	return f.discover, nil
}

func (f *fakePrimary) Details(_ context.Context, movieID int) (*gateway.TMDBMovie, error) {
	f.count("details")
	return f.details[movieID], nil
}

type fakeFallback struct {
	enabled bool
	docs    map[string][]gateway.KinopoiskDoc
	err     error

	mu    sync.Mutex
	calls int
}

func (f *fakeFallback) Enabled() bool { return f.enabled }

func (f *fakeFallback) Search(_ context.Context, query string, limit int) ([]gateway.KinopoiskDoc, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	docs := f.docs[util.NormalizeTitle(query)]
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (f *fakeFallback) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRatings struct {
	enabled bool
	results map[string]*gateway.OMDbResult
	errs    map[string]error

	mu    sync.Mutex
	calls int
}

func (f *fakeRatings) Enabled() bool { return f.enabled }

func (f *fakeRatings) Lookup(_ context.Context, title string, _ int) (*gateway.OMDbResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	key := strings.ToLower(title)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.results[key], nil
}

func (f *fakeRatings) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSink struct {
	mu      sync.Mutex
	sources []string
}

func (s *recordingSink) Record(source string, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, source)
}

func (s *recordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

func movie(id int, title, date string, rating float64, votes int, genreIDs ...int) gateway.TMDBMovie {
	return gateway.TMDBMovie{
		ID:          id,
		Title:       title,
		ReleaseDate: date,
		VoteAverage: rating,
		VoteCount:   votes,
		GenreIDs:    genreIDs,
	}
}
