package recommend

import (
	"context"
	"strings"
	"testing"

	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

func TestProbeTMDB(t *testing.T) {
	ctx := context.Background()

	disabled := newFakePrimary()
	disabled.enabled = false
	if ok, status := ProbeTMDB(ctx, disabled); ok || status != "disabled" {
		t.Errorf("unexpected disabled probe: %v %q", ok, status)
	}

	primary := newFakePrimary()
	primary.genres = map[int]string{18: "Drama", 35: "Comedy"}
	if ok, status := ProbeTMDB(ctx, primary); !ok || status != "ok (genres=2)" {
		t.Errorf("unexpected probe: %v %q", ok, status)
	}

	primary.genresErr = errors.NewTemporaryAPIError(gateway.ProviderTMDB, "unavailable", 503, nil)
	ok, status := ProbeTMDB(ctx, primary)
	if ok || !strings.Contains(status, "APIError") {
		t.Errorf("unexpected failed probe: %v %q", ok, status)
	}
}

func TestProbeKinopoisk(t *testing.T) {
	ctx := context.Background()

	if ok, status := ProbeKinopoisk(ctx, nil); ok || status != "disabled" {
		t.Errorf("unexpected nil probe: %v %q", ok, status)
	}

	fallback := &fakeFallback{enabled: true, docs: map[string][]gateway.KinopoiskDoc{
		"matrix": {{ID: 301, Name: "Матрица"}, {ID: 302, Name: "Матрица: Перезагрузка"}},
	}}
	if ok, status := ProbeKinopoisk(ctx, fallback); !ok || status != "ok (docs=1)" {
		t.Errorf("unexpected probe: %v %q", ok, status)
	}
}
