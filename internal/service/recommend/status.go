package recommend

import (
	"context"
	"fmt"

	"github.com/kapu/movie-advisor-bot/internal/util"
)

const probeQuery = "Matrix"

// ProbeTMDB checks the primary catalog by loading its genre taxonomy.
func ProbeTMDB(ctx context.Context, primary PrimaryCatalog) (bool, string) {
	if primary == nil || !primary.Enabled() {
		return false, "disabled"
	}
	genres, err := primary.Genres(ctx)
	if err != nil {
		return false, probeError(err)
	}
	return true, fmt.Sprintf("ok (genres=%d)", len(genres))
}

// ProbeKinopoisk checks the regional provider with a one-doc search.
func ProbeKinopoisk(ctx context.Context, fallback FallbackCatalog) (bool, string) {
	if fallback == nil || !fallback.Enabled() {
		return false, "disabled"
	}
	docs, err := fallback.Search(ctx, probeQuery, 1)
	if err != nil {
		return false, probeError(err)
	}
	return true, fmt.Sprintf("ok (docs=%d)", len(docs))
}

func probeError(err error) string {
	return util.TruncateString(fmt.Sprintf("%T: %v", err, err), 200)
}
