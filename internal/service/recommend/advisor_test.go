package recommend

import (
	"context"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
)

func newTestAdvisor(seed int64) *Advisor {
	primary := newFakePrimary()
	primary.discover = []gateway.TMDBMovie{
		movie(1, "Arrival", "2016-11-10", 7.6, 17000),
		movie(2, "Dune", "2021-09-15", 7.8, 12000),
		movie(3, "Alien", "1979-05-25", 8.1, 14000),
	}
	collector := NewCollector(primary, nil, nil, nil, Config{}, zap.NewNop())
	return NewAdvisor(collector, nil, Config{}, rand.New(rand.NewSource(seed)), zap.NewNop())
}

func TestAdvisorRecommendAppliesYearAndExclusions(t *testing.T) {
	advisor := newTestAdvisor(1)

	items, err := advisor.Recommend(context.Background(), &domain.TasteProfile{}, Request{Exclude: []string{"dune"}})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Arrival" {
		t.Fatalf("expected only Arrival, got %v", titles(items))
	}
}

func TestAdvisorPickRandomAvoidsRecent(t *testing.T) {
	advisor := newTestAdvisor(3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		picked, err := advisor.PickRandom(ctx, &domain.TasteProfile{}, []string{"Arrival"})
		if err != nil {
			t.Fatalf("PickRandom failed: %v", err)
		}
		if picked == nil || picked.Title != "Dune" {
			t.Fatalf("expected Dune, got %+v", picked)
		}
	}

	picked, err := advisor.PickRandom(ctx, &domain.TasteProfile{}, []string{"Arrival", "Dune"})
	if err != nil {
		t.Fatalf("PickRandom failed: %v", err)
	}
	if picked == nil || picked.Title == "Alien" {
		t.Fatalf("expected a pick from the full pool, got %+v", picked)
	}
}

func TestAdvisorPickRandomEmptyPool(t *testing.T) {
	collector := NewCollector(newFakePrimary(), nil, nil, nil, Config{}, zap.NewNop())
	advisor := NewAdvisor(collector, nil, Config{}, rand.New(rand.NewSource(1)), zap.NewNop())

	picked, err := advisor.PickRandom(context.Background(), &domain.TasteProfile{}, nil)
	if err != nil {
		t.Fatalf("PickRandom failed: %v", err)
	}
	if picked != nil {
		t.Fatalf("expected no pick, got %+v", picked)
	}
}
