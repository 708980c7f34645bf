package recommend

import (
	"math"
	"testing"

	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
)

func TestSelectSeeds(t *testing.T) {
	t.Run("relaxes threshold when few strong favorites", func(t *testing.T) {
		seeds := SelectSeeds([]domain.SeedMovie{
			{Title: "A", Rating: 9},
			{Title: "B", Rating: 7},
			{Title: "C", Rating: 6.6},
			{Title: "D", Rating: 5},
		})
		if len(seeds) != 3 {
			t.Fatalf("expected 3 seeds, got %+v", seeds)
		}
		if seeds[2].Title != "C" {
			t.Errorf("expected C as last seed, got %s", seeds[2].Title)
		}
	})

	t.Run("caps strong favorites", func(t *testing.T) {
		seeds := SelectSeeds([]domain.SeedMovie{
			{Title: "A", Rating: 9},
			{Title: "B", Rating: 8.5},
			{Title: "C", Rating: 8.2},
			{Title: "D", Rating: 8.1},
			{Title: "E", Rating: 8},
		})
		if len(seeds) != 4 {
			t.Fatalf("expected 4 seeds, got %d", len(seeds))
		}
	})
}

func TestPickBestSeedRejectsUnrelatedResult(t *testing.T) {
	results := []gateway.TMDBMovie{movie(1, "Gravity", "2004-01-01", 7, 5000)}

	if _, ok := PickBestSeed(results, "Interstellar", 2014); ok {
		t.Fatal("expected unrelated result to be rejected")
	}
}

func TestPickBestSeedPrefersExactTitleAndYear(t *testing.T) {
	results := []gateway.TMDBMovie{
		movie(1, "Interstellar: Nolan's Odyssey", "2015-01-01", 7, 100),
		movie(2, "Interstellar", "2014-11-05", 8.4, 30000),
	}

	best, ok := PickBestSeed(results, "interstellar", 2014)
	if !ok {
		t.Fatal("expected a match")
	}
	if best.ID != 2 {
		t.Errorf("expected exact match, got %+v", best)
	}
}

func TestPickBestSeedOnlyLooksAtFirstPage(t *testing.T) {
	results := make([]gateway.TMDBMovie, 0, 9)
	for i := 0; i < 8; i++ {
		results = append(results, movie(i+1, "Unrelated", "1950-01-01", 1, 0))
	}
	results = append(results, movie(99, "Arrival", "2016-11-10", 7.6, 17000))

	if _, ok := PickBestSeed(results, "Arrival", 2016); ok {
		t.Fatal("expected match beyond the first eight results to be ignored")
	}
}

func TestKinopoiskDocScoreUsesBestName(t *testing.T) {
	doc := gateway.KinopoiskDoc{Name: "Начало", EnName: "Inception", Year: 2010}

	exact := KinopoiskDocScore(doc, "inception", 2010)
	if exact != 8 {
		t.Errorf("expected 8 for exact name and year, got %v", exact)
	}
	if other := KinopoiskDocScore(doc, "dune", 2021); other != 0 {
		t.Errorf("expected 0 for an unrelated title, got %v", other)
	}
}

func TestSeedMatchScoreYearBuckets(t *testing.T) {
	seed := "inception"
	// title 6 + rating 8.4/20 + min(10000/20000, 0.5)
	const base = 6 + 0.42 + 0.5
	tests := []struct {
		name  string
		title string
		date  string
		year  int
		want  float64
	}{
		{name: "same year", title: "Inception", date: "2010-07-15", year: 2010, want: base + 2},
		{name: "one year off", title: "Inception", date: "2011-01-01", year: 2010, want: base + 1.4},
		{name: "three years off", title: "Inception", date: "2013-01-01", year: 2010, want: base + 0.6},
		{name: "four years off", title: "Inception", date: "2014-01-01", year: 2010, want: base - 0.8},
		{name: "unknown seed year", title: "Inception", date: "2010-07-15", want: base},
		{name: "containment", title: "Inception 2", date: "2010-07-15", year: 2010, want: base - 3 + 2},
	}
	for _, tt := range tests {
		item := gateway.TMDBMovie{Title: tt.title, ReleaseDate: tt.date, VoteAverage: 8.4, VoteCount: 10000}
		if got := SeedMatchScore(item, seed, tt.year); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: SeedMatchScore = %.4f, want %.4f", tt.name, got, tt.want)
		}
	}
}
