package recommend

import (
	"math"
	"reflect"
	"testing"

	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
)

func TestGenreWeights(t *testing.T) {
	p := &domain.TasteProfile{TopGenres: []domain.GenreScore{
		{Genre: "sci-fi", Score: 10},
		{Genre: "drama", Score: 5},
	}}

	weights := GenreWeights(p)
	if len(weights) != 2 {
		t.Fatalf("expected 2 weights, got %v", weights)
	}
	if weights["sci fi"] != 1 {
		t.Errorf("expected sci fi weight 1, got %v", weights["sci fi"])
	}
	if weights["drama"] != 0.5 {
		t.Errorf("expected drama weight 0.5, got %v", weights["drama"])
	}

	if got := GenreWeights(nil); len(got) != 0 {
		t.Errorf("expected empty weights for nil profile, got %v", got)
	}
}

func TestMatchGenreIDs(t *testing.T) {
	genreMap := map[int]string{878: "Sci-Fi", 18: "Drama", 10749: "Romance"}

	got := MatchGenreIDs([]string{"sci-fi", "drama", "western"}, genreMap)
	want := []int{878, 18}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSharedGenresAndAffinity(t *testing.T) {
	genreMap := map[int]string{878: "Sci-Fi", 18: "Drama", 35: "Comedy"}
	preferred := map[string]struct{}{"sci fi": {}, "drama": {}}

	shared := SharedGenres([]int{35, 878, 18, 878}, genreMap, preferred)
	if !reflect.DeepEqual(shared, []string{"Sci-Fi", "Drama"}) {
		t.Fatalf("unexpected shared genres: %v", shared)
	}

	affinity := GenreAffinity(shared, map[string]float64{"sci fi": 1, "drama": 0.5})
	if math.Abs(affinity-0.75) > 1e-9 {
		t.Errorf("expected affinity 0.75, got %v", affinity)
	}
	if got := GenreAffinity(nil, map[string]float64{"drama": 1}); got != 0 {
		t.Errorf("expected zero affinity without shared genres, got %v", got)
	}
}

func TestMergeKeepsHigherScore(t *testing.T) {
	first := []domain.CandidateMovie{{ProviderID: "tmdb:1", Title: "Arrival", Score: 5.0}}
	second := []domain.CandidateMovie{
		{ProviderID: "tmdb:1", Title: "Arrival", Score: 7.2},
		{ProviderID: "tmdb:2", Title: "Gravity", Score: 6.0},
	}

	merged := Merge(first, second)
	if len(merged) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(merged))
	}
	if merged[0].ProviderID != "tmdb:1" || merged[0].Score != 7.2 {
		t.Errorf("expected tmdb:1 with score 7.2 first, got %+v", merged[0])
	}

	reversed := Merge(second, first)
	if !reflect.DeepEqual(reversed, merged) {
		t.Errorf("merge depends on list order: %+v vs %+v", reversed, merged)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	items := Merge([]domain.CandidateMovie{
		{ProviderID: "tmdb:3", Title: "Dune", Score: 4},
		{ProviderID: "tmdb:1", Title: "Arrival", Score: 9},
		{ProviderID: "tmdb:2", Title: "Gravity", Score: 6},
	})

	again := Merge(items, items)
	if !reflect.DeepEqual(again, items) {
		t.Fatalf("expected idempotent merge, got %+v", again)
	}
	for i := 1; i < len(again); i++ {
		if again[i-1].Score < again[i].Score {
			t.Fatalf("merge result not ranked: %+v", again)
		}
	}
}

func TestCandidateFromTMDBDropsIncompleteItems(t *testing.T) {
	if _, ok := candidateFromTMDB(movie(0, "No ID", "2020-01-01", 7, 100), nil, 1, ""); ok {
		t.Error("expected item without id to be dropped")
	}
	if _, ok := candidateFromTMDB(movie(5, "  ", "2020-01-01", 7, 100), nil, 1, ""); ok {
		t.Error("expected item without title to be dropped")
	}

	item := movie(5, "Arrival", "2016-11-10", 7.6, 17000, 878, 99)
	item.PosterPath = "/arrival.jpg"
	candidate, ok := candidateFromTMDB(item, map[int]string{878: "Sci-Fi"}, 3, "reason")
	if !ok {
		t.Fatal("expected candidate")
	}
	if candidate.ProviderID != "tmdb:5" || candidate.Year != 2016 || candidate.Source != domain.SourceTMDB {
		t.Errorf("unexpected candidate: %+v", candidate)
	}
	if !reflect.DeepEqual(candidate.Genres, []string{"Sci-Fi"}) {
		t.Errorf("unexpected genres: %v", candidate.Genres)
	}
	if candidate.PosterURL != "https://image.tmdb.org/t/p/w500/arrival.jpg" {
		t.Errorf("unexpected poster: %s", candidate.PosterURL)
	}
}

func TestReasons(t *testing.T) {
	if got := sharedGenresReason(nil); got != reasonCloseProfile {
		t.Errorf("unexpected reason: %q", got)
	}
	if got := sharedGenresReason([]string{"a", "b", "c", "d"}); got != "совпадают жанры: a, b, c" {
		t.Errorf("unexpected reason: %q", got)
	}
	if got := queryReason("island", []string{"Drama", "Adventure", "Action"}); got != "по запросу: island; жанры: Drama, Adventure" {
		t.Errorf("unexpected query reason: %q", got)
	}
}

func assertScore(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %.6f, want %.6f", name, got, want)
	}
}

func TestSeedScoreFormula(t *testing.T) {
	tests := []struct {
		name     string
		seed     float64
		rating   float64
		votes    int
		shared   int
		affinity float64
		want     float64
	}{
		// 9*0.7 + 8.4*0.9 + min(36000/4000, 2.5) + 2*1.8 + 0.75*2.2
		{name: "popular with two shared genres", seed: 9, rating: 8.4, votes: 36000, shared: 2, affinity: 0.75, want: 21.61},
		// 8*0.7 + 7*0.9 + 2000/4000
		{name: "no shared genres", seed: 8, rating: 7, votes: 2000, want: 12.4},
	}
	for _, tt := range tests {
		item := gateway.TMDBMovie{VoteAverage: tt.rating, VoteCount: tt.votes}
		got := seedScore(domain.SeedMovie{Rating: tt.seed}, item, tt.shared, tt.affinity)
		assertScore(t, tt.name, got, tt.want)
	}
}

func TestDiscoverScoreFormula(t *testing.T) {
	// 8*0.9 + min(30000/5000, 2) + 1*2 + 0.5*2.4
	assertScore(t, "capped votes", discoverScore(gateway.TMDBMovie{VoteAverage: 8, VoteCount: 30000}, 1, 0.5), 12.4)
	// 6*0.9 + 2500/5000
	assertScore(t, "no genres", discoverScore(gateway.TMDBMovie{VoteAverage: 6, VoteCount: 2500}, 0, 0), 5.9)
}

func TestQueryScoreFormula(t *testing.T) {
	// 8*1.25 + 9000/4500 + 0.5*1.6 + 2*0.7 + 1.4 + 2.5
	assertScore(t, "direct match", queryScore(gateway.TMDBMovie{VoteAverage: 8, VoteCount: 9000}, 2, 0.5, 1.4), 18.1)
	// 6*1.25 + min(45000/4500, 2.2) + 2.5
	assertScore(t, "capped votes", queryScore(gateway.TMDBMovie{VoteAverage: 6, VoteCount: 45000}, 0, 0, 0), 12.2)
}

func TestQueryBonus(t *testing.T) {
	tests := []struct {
		name     string
		titleKey string
		termKey  string
		direct   bool
		semantic int
		want     float64
	}{
		{name: "title and direct match", titleKey: "island of doom", termKey: "island", direct: true, semantic: 2, want: 5.0},
		{name: "semantic only", titleKey: "cast away", termKey: "остров", semantic: 1, want: 0.9},
		{name: "direct only", titleKey: "cast away", termKey: "island", direct: true, want: 1.4},
		{name: "empty title", termKey: "island", want: 0},
	}
	for _, tt := range tests {
		assertScore(t, tt.name, queryBonus(tt.titleKey, tt.termKey, tt.direct, tt.semantic), tt.want)
	}
}

func TestFallbackScoreFormula(t *testing.T) {
	// 8*1.2 + 2500/5000 + 2.2
	assertScore(t, "hint matched", fallbackScore(8, 2500, true), 12.3)
	// 7*1.2 + min(100000/5000, 1.5)
	assertScore(t, "capped votes", fallbackScore(7, 100000, false), 9.9)
}
