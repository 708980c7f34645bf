package profile

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// Fingerprint digests the parts of a profile that influence candidate
// collection. Profiles with equal fingerprints share cached candidate pools.
func Fingerprint(p *domain.TasteProfile) uint64 {
	if p == nil {
		return 0
	}

	d := xxhash.New()
	write := func(parts ...string) {
		for _, part := range parts {
			_, _ = d.WriteString(part)
			_, _ = d.Write([]byte{0x1f})
		}
		_, _ = d.Write([]byte{0x1e})
	}

	write(
		strconv.Itoa(p.TotalEntries),
		strconv.Itoa(p.RatedEntries),
		strconv.FormatFloat(p.AverageRating, 'f', 2, 64),
	)

	for i, genre := range p.TopGenres {
		if i >= constants.CollectorConfig.FingerprintGenres {
			break
		}
		write(util.NormalizeTitle(genre.Genre), strconv.FormatFloat(genre.Score, 'f', 2, 64))
	}

	for i, favorite := range p.Favorites {
		if i >= constants.CollectorConfig.FingerprintFavorite {
			break
		}
		write(
			util.NormalizeTitle(favorite.Title),
			strconv.Itoa(favorite.Year),
			strconv.FormatFloat(favorite.Rating, 'f', 1, 64),
		)
	}

	watched := make([]string, 0, len(p.WatchedLookup))
	for key := range p.WatchedLookup {
		watched = append(watched, key)
	}
	sort.Strings(watched)
	write(watched...)

	return d.Sum64()
}
