package recommend

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
)

func TestEnrichBoostsAndReranks(t *testing.T) {
	ratings := &fakeRatings{enabled: true, results: map[string]*gateway.OMDbResult{
		"inception": {Response: "True", IMDbRating: "8.8", Plot: "A thief steals secrets through dreams.", Poster: "N/A"},
	}}
	enricher := NewEnricher(ratings, 4, nil, zap.NewNop())

	items := []domain.CandidateMovie{
		{ProviderID: "tmdb:1", Title: "Arrival", Year: 2016, Score: 10.0, Plot: "Linguist meets aliens."},
		{ProviderID: "tmdb:2", Title: "Inception", Year: 2010, Score: 9.5},
	}
	enricher.Enrich(context.Background(), items, 2)

	if items[0].Title != "Inception" {
		t.Fatalf("expected Inception to move up, got %v", titles(items))
	}
	if math.Abs(items[0].Score-10.204) > 1e-9 {
		t.Errorf("expected score 10.204, got %v", items[0].Score)
	}
	if items[0].SecondaryRating != 8.8 {
		t.Errorf("expected secondary rating 8.8, got %v", items[0].SecondaryRating)
	}
	if items[0].Plot != "A thief steals secrets through dreams." {
		t.Errorf("expected plot to be filled, got %q", items[0].Plot)
	}
	if items[0].PosterURL != "" {
		t.Errorf("expected N/A poster to be ignored, got %q", items[0].PosterURL)
	}
	if items[1].Score != 10.0 || items[1].Plot != "Linguist meets aliens." {
		t.Errorf("unmatched item changed: %+v", items[1])
	}
}

func TestEnrichKeepsExistingPlot(t *testing.T) {
	ratings := &fakeRatings{enabled: true, results: map[string]*gateway.OMDbResult{
		"arrival": {Response: "True", IMDbRating: "7.9", Plot: "Other plot.", Poster: "https://img/arrival.jpg"},
	}}
	enricher := NewEnricher(ratings, 1, nil, zap.NewNop())

	items := []domain.CandidateMovie{{Title: "Arrival", Score: 1, Plot: "Original plot."}}
	enricher.Enrich(context.Background(), items, 1)

	if items[0].Plot != "Original plot." {
		t.Errorf("expected plot to be kept, got %q", items[0].Plot)
	}
	if items[0].PosterURL != "https://img/arrival.jpg" {
		t.Errorf("expected poster to be filled, got %q", items[0].PosterURL)
	}
}

func TestEnrichIsolatesFailures(t *testing.T) {
	ratings := &fakeRatings{
		enabled: true,
		results: map[string]*gateway.OMDbResult{"dune": {Response: "True", IMDbRating: "8.0"}},
		errs:    map[string]error{"arrival": stderrors.New("boom")},
	}
	sink := &recordingSink{}
	enricher := NewEnricher(ratings, 3, sink, zap.NewNop())

	items := []domain.CandidateMovie{
		{Title: "Arrival", Score: 5},
		{Title: "Dune", Score: 4},
	}
	enricher.Enrich(context.Background(), items, 2)

	if sink.Count() != 1 {
		t.Errorf("expected one recorded failure, got %d", sink.Count())
	}
	for _, item := range items {
		switch item.Title {
		case "Arrival":
			if item.Score != 5 || item.SecondaryRating != 0 {
				t.Errorf("failed item changed: %+v", item)
			}
		case "Dune":
			if item.SecondaryRating != 8.0 {
				t.Errorf("expected Dune to be enriched: %+v", item)
			}
		}
	}
}

func TestEnrichRespectsLimit(t *testing.T) {
	ratings := &fakeRatings{enabled: true}
	enricher := NewEnricher(ratings, 2, nil, zap.NewNop())

	items := []domain.CandidateMovie{{Title: "A", Score: 3}, {Title: "B", Score: 2}, {Title: "C", Score: 1}}
	enricher.Enrich(context.Background(), items, 1)
	if ratings.Calls() != 1 {
		t.Errorf("expected 1 lookup, got %d", ratings.Calls())
	}

	disabled := &fakeRatings{}
	NewEnricher(disabled, 2, nil, zap.NewNop()).Enrich(context.Background(), items, 3)
	if disabled.Calls() != 0 {
		t.Errorf("expected no lookups when disabled, got %d", disabled.Calls())
	}

	var nilEnricher *Enricher
	nilEnricher.Enrich(context.Background(), items, 3)
}

func TestEnrichSkipsCancellationErrors(t *testing.T) {
	ratings := &fakeRatings{
		enabled: true,
		errs: map[string]error{
			"arrival": context.Canceled,
			"dune":    context.DeadlineExceeded,
		},
	}
	sink := &recordingSink{}
	enricher := NewEnricher(ratings, 2, sink, zap.NewNop())

	items := []domain.CandidateMovie{
		{Title: "Arrival", Score: 5},
		{Title: "Dune", Score: 4},
	}
	enricher.Enrich(context.Background(), items, 2)

	if ratings.Calls() != 2 {
		t.Fatalf("expected 2 lookups, got %d", ratings.Calls())
	}
	if sink.Count() != 0 {
		t.Errorf("expected cancellations to stay unrecorded, got %d", sink.Count())
	}
	if items[0].Title != "Arrival" || items[0].Score != 5 {
		t.Errorf("unexpected items after cancelled lookups: %+v", items)
	}
}
