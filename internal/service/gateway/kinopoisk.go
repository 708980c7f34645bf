package gateway

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

const ProviderKinopoisk = "kinopoisk"

// FlexNumber decodes numbers that may arrive as JSON numbers, numeric strings or null.
type FlexNumber float64

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*n = FlexNumber(util.ParseRating(text))
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		*n = 0
		return nil
	}
	*n = FlexNumber(value)
	return nil
}

type KinopoiskRating struct {
	KP   FlexNumber `json:"kp"`
	IMDb FlexNumber `json:"imdb"`
}

// Best prefers the IMDb-scale rating and falls back to the regional one.
func (r KinopoiskRating) Best() float64 {
	if r.IMDb > 0 {
		return float64(r.IMDb)
	}
	if r.KP > 0 {
		return float64(r.KP)
	}
	return 0
}

type KinopoiskVotes struct {
	KP   FlexNumber `json:"kp"`
	IMDb FlexNumber `json:"imdb"`
}

// Max is the larger of the two vote counters.
func (v KinopoiskVotes) Max() int {
	if v.IMDb > v.KP {
		return int(v.IMDb)
	}
	return int(v.KP)
}

type KinopoiskPoster struct {
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl"`
}

type KinopoiskGenre struct {
	Name string `json:"name"`
}

// KinopoiskDoc is one entry of the regional search response.
type KinopoiskDoc struct {
	ID               FlexNumber       `json:"id"`
	Name             string           `json:"name"`
	AlternativeName  string           `json:"alternativeName"`
	EnName           string           `json:"enName"`
	Type             string           `json:"type"`
	Year             FlexNumber       `json:"year"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"shortDescription"`
	Genres           []KinopoiskGenre `json:"genres"`
	Rating           KinopoiskRating  `json:"rating"`
	Votes            KinopoiskVotes   `json:"votes"`
	Poster           *KinopoiskPoster `json:"poster"`
}

// Names returns the non-empty localized names in priority order.
func (d KinopoiskDoc) Names() []string {
	names := make([]string, 0, 3)
	for _, name := range []string{d.Name, d.AlternativeName, d.EnName} {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func (d KinopoiskDoc) DisplayTitle() string {
	names := d.Names()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func (d KinopoiskDoc) YearValue() int {
	return util.ValidYear(int(d.Year))
}

func (d KinopoiskDoc) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, genre := range d.Genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (d KinopoiskDoc) PosterURL() string {
	if d.Poster == nil {
		return ""
	}
	if link := strings.TrimSpace(d.Poster.URL); link != "" {
		return link
	}
	return strings.TrimSpace(d.Poster.PreviewURL)
}

// Plot returns the plain-text description.
func (d KinopoiskDoc) Plot() string {
	text := d.Description
	if strings.TrimSpace(text) == "" {
		text = d.ShortDescription
	}
	return util.StripMarkup(text)
}

// Details converts the doc to the shared details record.
func (d KinopoiskDoc) Details() *domain.MovieDetails {
	details := &domain.MovieDetails{
		Title:  d.DisplayTitle(),
		Genre:  strings.Join(d.GenreNames(), ", "),
		Type:   d.Type,
		Plot:   d.Plot(),
		Poster: d.PosterURL(),
	}
	if year := d.YearValue(); year > 0 {
		details.Year = strconv.Itoa(year)
	}
	if rating := d.Rating.Best(); rating > 0 {
		details.Rating = strconv.FormatFloat(rating, 'f', 1, 64)
	}
	return details
}

type kinopoiskSearchResponse struct {
	Docs []KinopoiskDoc `json:"docs"`
}

// KinopoiskClient is the regional fallback adapter.
type KinopoiskClient struct {
	client *Client
	apiKey string
}

func NewKinopoiskClient(client *Client, apiKey string) *KinopoiskClient {
	return &KinopoiskClient{
		client: client,
		apiKey: strings.TrimSpace(apiKey),
	}
}

func (k *KinopoiskClient) Enabled() bool {
	return k.apiKey != ""
}

// Search runs a free-text search and returns at most limit docs.
func (k *KinopoiskClient) Search(ctx context.Context, query string, limit int) ([]KinopoiskDoc, error) {
	if !k.Enabled() {
		return nil, errors.NewProviderDisabledError(ProviderKinopoisk)
	}
	if limit < 1 {
		limit = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(limit))
	headers := http.Header{}
	headers.Set("X-API-KEY", k.apiKey)

	var payload kinopoiskSearchResponse
	if err := k.client.GetJSON(ctx, "/movie/search", params, headers, &payload); err != nil {
		return nil, err
	}
	if len(payload.Docs) > limit {
		payload.Docs = payload.Docs[:limit]
	}
	return payload.Docs, nil
}

func (k *KinopoiskClient) CoolingDown() bool {
	return k.client.CoolingDown()
}
