package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// collectFallback queries the regional provider once per top genre. available
// is false when the provider is disabled or every search failed.
func (c *Collector) collectFallback(ctx context.Context, log *zap.Logger, p *domain.TasteProfile, limit int) ([]domain.CandidateMovie, bool) {
	if !c.fallbackEnabled() {
		return nil, false
	}

	genres := make([]string, 0, constants.CollectorConfig.FallbackGenres)
	for _, genre := range p.TopGenres {
		if len(genres) >= constants.CollectorConfig.FallbackGenres {
			break
		}
		if strings.TrimSpace(genre.Genre) != "" {
			genres = append(genres, genre.Genre)
		}
	}
	if len(genres) == 0 {
		genres = append(genres, constants.FallbackDefaultGenres...)
	}

	byTitle := make(map[string]int)
	items := make([]domain.CandidateMovie, 0)
	succeeded := false

	for _, genre := range genres {
		if ctx.Err() != nil {
			break
		}
		docs, err := c.fallback.Search(ctx, genre, constants.CollectorConfig.FallbackDocLimit)
		if err != nil {
			log.Warn("Fallback search failed", zap.String("genre", genre), zap.Error(err))
			continue
		}
		succeeded = true

		for _, candidate := range kinopoiskCandidates(docs, p, genre) {
			key := util.NormalizeTitle(candidate.Title)
			if idx, ok := byTitle[key]; ok {
				if candidate.Score > items[idx].Score {
					items[idx] = candidate
				}
				continue
			}
			byTitle[key] = len(items)
			items = append(items, candidate)
		}
	}

	Rank(items)
	if len(items) > limit {
		items = items[:limit]
	}
	log.Info("Fallback candidates collected",
		zap.Int("candidates", len(items)),
		zap.Strings("genres", genres),
		zap.Bool("available", succeeded),
	)
	return items, succeeded
}

// kinopoiskCandidates converts search docs into scored candidates, skipping
// watched titles. genreHint earns a bonus when the doc carries that genre.
func kinopoiskCandidates(docs []gateway.KinopoiskDoc, p *domain.TasteProfile, genreHint string) []domain.CandidateMovie {
	hint := util.NormalizeTitle(genreHint)
	out := make([]domain.CandidateMovie, 0, len(docs))

	for _, doc := range docs {
		title := doc.DisplayTitle()
		normalized := util.NormalizeTitle(title)
		if normalized == "" || p.HasWatched(normalized) {
			continue
		}

		genres := doc.GenreNames()
		matched := false
		if hint != "" {
			for _, genre := range genres {
				if util.NormalizeTitle(genre) == hint {
					matched = true
					break
				}
			}
		}

		rating := doc.Rating.Best()
		votes := doc.Votes.Max()
		reason := reasonLikeProfile
		if matched {
			reason = reasonGenreMatch + genreHint
		}

		providerID := "kp:title:" + normalized
		if id := int64(doc.ID); id > 0 {
			providerID = fmt.Sprintf("kp:%d", id)
		}

		candidate := domain.CandidateMovie{
			ProviderID:    providerID,
			Source:        domain.SourceKinopoisk,
			Title:         title,
			Year:          doc.YearValue(),
			PrimaryRating: rating,
			VoteCount:     votes,
			Genres:        genres,
			Score:         fallbackScore(rating, votes, matched),
			Reason:        reason,
			Plot:          doc.Plot(),
			PosterURL:     doc.PosterURL(),
		}
		if imdb := float64(doc.Rating.IMDb); imdb > 0 {
			candidate.SecondaryRating = imdb
		}
		out = append(out, candidate)
	}
	return out
}
