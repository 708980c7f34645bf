package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/service/cache"
	"github.com/kapu/movie-advisor-bot/internal/util"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

const ProviderTMDB = "tmdb"

type TMDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TMDBMovie covers both list results (GenreIDs) and the details payload (Genres).
type TMDBMovie struct {
	ID            int         `json:"id"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"original_title"`
	Overview      string      `json:"overview"`
	ReleaseDate   string      `json:"release_date"`
	VoteAverage   float64     `json:"vote_average"`
	VoteCount     int         `json:"vote_count"`
	GenreIDs      []int       `json:"genre_ids"`
	Genres        []TMDBGenre `json:"genres"`
	PosterPath    string      `json:"poster_path"`
}

func (m TMDBMovie) Year() int {
	return util.ParseYear(m.ReleaseDate)
}

func (m TMDBMovie) PosterURL() string {
	path := strings.TrimSpace(m.PosterPath)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return constants.APIConfig.TMDBPosterBaseURL + path
}

// GenreNames returns the names carried by a details payload.
func (m TMDBMovie) GenreNames() []string {
	names := make([]string, 0, len(m.Genres))
	for _, genre := range m.Genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DiscoverFilter selects the discovery endpoint's rating-sorted listing.
type DiscoverFilter struct {
	GenreIDs []int
	MinVotes int
	Page     int
}

type TMDBConfig struct {
	APIKey   string
	Language string
	Region   string
}

type tmdbPage struct {
	Results []TMDBMovie `json:"results"`
}

type tmdbGenreList struct {
	Genres []TMDBGenre `json:"genres"`
}

// TMDBClient is the primary catalog adapter.
type TMDBClient struct {
	client *Client
	cfg    TMDBConfig
	genres *cache.TTLCache[string, map[int]string]
	logger *zap.Logger
}

const genreTaxonomyKey = "movie"

// NewTMDBClient wires the adapter. genres holds the process-wide genre taxonomy.
func NewTMDBClient(client *Client, cfg TMDBConfig, genres *cache.TTLCache[string, map[int]string], logger *zap.Logger) *TMDBClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if genres == nil {
		genres = cache.NewTTLCache[string, map[int]string](constants.CacheTTL.GenreTaxonomy, 1)
	}
	return &TMDBClient{
		client: client,
		cfg:    cfg,
		genres: genres,
		logger: logger,
	}
}

func (t *TMDBClient) Enabled() bool {
	return strings.TrimSpace(t.cfg.APIKey) != ""
}

func (t *TMDBClient) get(ctx context.Context, path string, params url.Values, dest any) error {
	if !t.Enabled() {
		return errors.NewProviderDisabledError(ProviderTMDB)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", t.cfg.APIKey)
	if t.cfg.Language != "" {
		params.Set("language", t.cfg.Language)
	}
	if t.cfg.Region != "" {
		params.Set("region", t.cfg.Region)
	}
	return t.client.GetJSON(ctx, path, params, nil, dest)
}

// Genres returns the genre id to name taxonomy, served from cache when fresh.
func (t *TMDBClient) Genres(ctx context.Context) (map[int]string, error) {
	if cached, ok := t.genres.Get(genreTaxonomyKey); ok {
		return copyGenreMap(cached), nil
	}

	var payload tmdbGenreList
	if err := t.get(ctx, "/genre/movie/list", nil, &payload); err != nil {
		return nil, err
	}

	result := make(map[int]string, len(payload.Genres))
	for _, genre := range payload.Genres {
		if genre.ID != 0 && genre.Name != "" {
			result[genre.ID] = genre.Name
		}
	}
	t.genres.Set(genreTaxonomyKey, result)
	t.logger.Debug("Genre taxonomy refreshed", zap.Int("genres", len(result)))
	return copyGenreMap(result), nil
}

func (t *TMDBClient) SearchMovies(ctx context.Context, query string, year int) ([]TMDBMovie, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")
	if util.ValidYear(year) > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var page tmdbPage
	if err := t.get(ctx, "/search/movie", params, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (t *TMDBClient) Recommendations(ctx context.Context, movieID int) ([]TMDBMovie, error) {
	params := url.Values{}
	params.Set("page", "1")

	var page tmdbPage
	if err := t.get(ctx, fmt.Sprintf("/movie/%d/recommendations", movieID), params, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (t *TMDBClient) Discover(ctx context.Context, filter DiscoverFilter) ([]TMDBMovie, error) {
	params := url.Values{}
	params.Set("include_adult", "false")
	params.Set("sort_by", "vote_average.desc")
	params.Set("vote_count.gte", strconv.Itoa(filter.MinVotes))
	page := filter.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	if len(filter.GenreIDs) > 0 {
		ids := make([]string, len(filter.GenreIDs))
		for i, id := range filter.GenreIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}

	var result tmdbPage
	if err := t.get(ctx, "/discover/movie", params, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (t *TMDBClient) Details(ctx context.Context, movieID int) (*TMDBMovie, error) {
	var movie TMDBMovie
	if err := t.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// CoolingDown reports whether the adapter is suppressing calls.
func (t *TMDBClient) CoolingDown() bool {
	return t.client.CoolingDown()
}

func copyGenreMap(src map[int]string) map[int]string {
	out := make(map[int]string, len(src))
	for id, name := range src {
		out[id] = name
	}
	return out
}
