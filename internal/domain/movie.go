package domain

import "strings"

// SeedMovie is a watched title taken from the history; highly rated ones seed
// "similar title" lookups.
type SeedMovie struct {
	Title  string   `json:"title"`
	Year   int      `json:"year,omitempty"` // 0 when unknown
	Rating float64  `json:"rating"`
	Genres []string `json:"genres,omitempty"`
}

// GenreScore is an accumulated rating weight for one lower-cased genre label.
type GenreScore struct {
	Genre string  `json:"genre"`
	Score float64 `json:"score"`
}

// TasteProfile is an immutable snapshot of a user's rated watch history.
type TasteProfile struct {
	TotalEntries  int                 `json:"total_entries"`
	RatedEntries  int                 `json:"rated_entries"`
	AverageRating float64             `json:"average_rating"`
	TopGenres     []GenreScore        `json:"top_genres"`
	Favorites     []SeedMovie         `json:"favorites"`
	WatchedTitles []string            `json:"watched_titles"`
	WatchedLookup map[string]struct{} `json:"-"`
}

// HasWatched reports whether a normalized title is in the watched lookup.
func (p *TasteProfile) HasWatched(normalizedTitle string) bool {
	if p == nil || normalizedTitle == "" {
		return false
	}
	_, ok := p.WatchedLookup[normalizedTitle]
	return ok
}

// CandidateSource names the provider a candidate was produced by.
type CandidateSource string

const (
	SourceTMDB      CandidateSource = "tmdb"
	SourceKinopoisk CandidateSource = "kinopoisk"
)

func (s CandidateSource) String() string {
	return string(s)
}

// CandidateMovie is a not-yet-watched catalog entry. It is only mutated while
// being scored or enriched; callers receive it as a value.
type CandidateMovie struct {
	ProviderID      string          `json:"provider_id"`
	Source          CandidateSource `json:"source"`
	Title           string          `json:"title"`
	Year            int             `json:"year,omitempty"`
	PrimaryRating   float64         `json:"primary_rating"`
	VoteCount       int             `json:"vote_count"`
	Genres          []string        `json:"genres"`
	Score           float64         `json:"score"`
	Reason          string          `json:"reason"` // display only, never used for ranking
	SecondaryRating float64         `json:"secondary_rating,omitempty"`
	Plot            string          `json:"plot,omitempty"`
	PosterURL       string          `json:"poster_url,omitempty"`
}

// HasSecondaryRating reports whether enrichment attached a secondary rating.
func (c CandidateMovie) HasSecondaryRating() bool {
	return c.SecondaryRating > 0
}

// Clone returns a copy that shares no slices with c.
func (c CandidateMovie) Clone() CandidateMovie {
	out := c
	if c.Genres != nil {
		out.Genres = append([]string(nil), c.Genres...)
	}
	return out
}

// CloneCandidates deep-copies a candidate list.
func CloneCandidates(items []CandidateMovie) []CandidateMovie {
	if items == nil {
		return nil
	}
	out := make([]CandidateMovie, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// MovieDetails is the flat metadata record produced by the details lookup.
// Values are display strings; Rating is the secondary (IMDb-scale) rating text.
type MovieDetails struct {
	Title      string `json:"title"`
	Year       string `json:"year"`
	Genre      string `json:"genre"`
	Type       string `json:"type"`
	Rating     string `json:"rating"`
	Plot       string `json:"plot"`
	Poster     string `json:"poster"`
	TMDBRating string `json:"tmdb_rating,omitempty"`
}

// IsEmpty reports whether no field carries a value.
func (d *MovieDetails) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, value := range d.fields() {
		if strings.TrimSpace(*value) != "" {
			return false
		}
	}
	return true
}

func (d *MovieDetails) fields() []*string {
	return []*string{&d.Title, &d.Year, &d.Genre, &d.Type, &d.Rating, &d.Plot, &d.Poster, &d.TMDBRating}
}

// Merge copies usable values from extra into d. Empty and "N/A" values never
// overwrite; with overwrite=false only empty or "N/A" fields of d are filled.
func (d *MovieDetails) Merge(extra *MovieDetails, overwrite bool) {
	if d == nil || extra == nil {
		return
	}
	dst := d.fields()
	src := extra.fields()
	for i := range dst {
		value := strings.TrimSpace(*src[i])
		if value == "" || strings.EqualFold(value, "n/a") {
			continue
		}
		current := strings.TrimSpace(*dst[i])
		if overwrite || current == "" || strings.EqualFold(current, "n/a") {
			*dst[i] = value
		}
	}
}
