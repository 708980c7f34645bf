package gateway

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/cache"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

const ProviderOMDb = "omdb"

// OMDbResult is the flat title lookup payload.
type OMDbResult struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Type       string `json:"Type"`
	IMDbRating string `json:"imdbRating"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func (r *OMDbResult) Found() bool {
	return r != nil && strings.EqualFold(strings.TrimSpace(r.Response), "true")
}

// Rating is the parsed IMDb rating, 0 when absent.
func (r *OMDbResult) Rating() float64 {
	if r == nil || util.IsNotAvailable(r.IMDbRating) {
		return 0
	}
	return util.ParseRating(r.IMDbRating)
}

// Details converts the payload to the shared details record.
func (r *OMDbResult) Details() *domain.MovieDetails {
	if r == nil {
		return nil
	}
	return &domain.MovieDetails{
		Title:  r.Title,
		Year:   r.Year,
		Genre:  r.Genre,
		Type:   r.Type,
		Rating: r.IMDbRating,
		Plot:   r.Plot,
		Poster: r.Poster,
	}
}

// OMDbClient is the ratings/plot adapter. Lookups are cached per normalized
// title and year, including misses and failures.
type OMDbClient struct {
	client *Client
	apiKey string
	cache  *cache.TTLCache[string, *OMDbResult]
	group  singleflight.Group
	logger *zap.Logger
}

func NewOMDbClient(client *Client, apiKey string, lookups *cache.TTLCache[string, *OMDbResult], logger *zap.Logger) *OMDbClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lookups == nil {
		lookups = cache.NewTTLCache[string, *OMDbResult](constants.CacheTTL.DetailsFound, constants.CacheLimits.DetailsEntries)
	}
	return &OMDbClient{
		client: client,
		apiKey: strings.TrimSpace(apiKey),
		cache:  lookups,
		logger: logger,
	}
}

func (o *OMDbClient) Enabled() bool {
	return o.apiKey != ""
}

// LookupKey is the cache key for a title and optional year.
func LookupKey(title string, year int) string {
	yearPart := ""
	if year > 0 {
		yearPart = strconv.Itoa(year)
	}
	return util.NormalizeTitle(title) + "::" + yearPart
}

// Lookup returns the payload for title/year, or nil when the provider has no
// such title. Provider failures are reported by the underlying client and also
// yield nil so callers degrade to unenriched data.
func (o *OMDbClient) Lookup(ctx context.Context, title string, year int) (*OMDbResult, error) {
	if !o.Enabled() {
		return nil, nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	key := LookupKey(title, year)
	if cached, ok := o.cache.Get(key); ok {
		return cached, nil
	}

	value, err, _ := o.group.Do(key, func() (any, error) {
		return o.lookup(ctx, key, title, year)
	})
	if err != nil {
		return nil, err
	}
	result, _ := value.(*OMDbResult)
	return result, nil
}

func (o *OMDbClient) lookup(ctx context.Context, key, title string, year int) (*OMDbResult, error) {
	payload, err := o.fetch(ctx, title, year)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn("OMDb lookup failed", zap.String("title", title), zap.Error(err))
		o.cache.SetWithTTL(key, nil, constants.CacheTTL.DetailsFailed)
		return nil, nil
	}

	if !payload.Found() && year > 0 {
		if retry, retryErr := o.fetch(ctx, title, 0); retryErr == nil {
			payload = retry
		}
	}

	if !payload.Found() {
		o.cache.SetWithTTL(key, nil, constants.CacheTTL.DetailsNotFound)
		return nil, nil
	}

	o.cache.SetWithTTL(key, payload, constants.CacheTTL.DetailsFound)
	return payload, nil
}

func (o *OMDbClient) fetch(ctx context.Context, title string, year int) (*OMDbResult, error) {
	params := url.Values{}
	params.Set("apikey", o.apiKey)
	params.Set("t", title)
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}

	var payload OMDbResult
	if err := o.client.GetJSON(ctx, "/", params, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (o *OMDbClient) CoolingDown() bool {
	return o.client.CoolingDown()
}
