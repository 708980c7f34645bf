package constants

import "time"

var CacheTTL = struct {
	GenreTaxonomy   time.Duration
	CandidatePool   time.Duration
	DetailsFound    time.Duration
	DetailsNotFound time.Duration
	DetailsFailed   time.Duration
	HistoryRecords  time.Duration
	RecentPicks     time.Duration
}{
	GenreTaxonomy:   30 * time.Minute, // TMDB genre list
	CandidatePool:   20 * time.Minute, // per profile fingerprint + pool size
	DetailsFound:    24 * time.Hour,   // OMDb hit
	DetailsNotFound: 10 * time.Minute, // OMDb "Response": "False"
	DetailsFailed:   1 * time.Minute,  // OMDb transport failure
	HistoryRecords:  3 * time.Minute,
	RecentPicks:     24 * time.Hour, // per room
}

var CacheLimits = struct {
	CandidatePools int
	DetailsEntries int
	RecentRooms    int
}{
	CandidatePools: 128,
	DetailsEntries: 4096,
	RecentRooms:    500,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MinDelay    time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MinDelay:    100 * time.Millisecond,
}

var CooldownConfig = struct {
	Window time.Duration
}{
	Window: 10 * time.Minute,
}

// RetryableStatusCodes are retried with backoff before a host is given up.
var RetryableStatusCodes = []int{429, 500, 502, 503, 504}

var APIConfig = struct {
	TMDBBaseURLs       []string
	TMDBPosterBaseURL  string
	TMDBTimeout        time.Duration
	TMDBRequestsPerSec float64
	OMDbBaseURL        string
	OMDbTimeout        time.Duration
	OMDbRequestsPerSec float64
	KinopoiskBaseURL   string
	KinopoiskTimeout   time.Duration
	KinopoiskPerSec    float64
}{
	TMDBBaseURLs: []string{
		"https://api.themoviedb.org/3",
		"https://api.tmdb.org/3",
	},
	TMDBPosterBaseURL:  "https://image.tmdb.org/t/p/w500",
	TMDBTimeout:        8 * time.Second,
	TMDBRequestsPerSec: 20,
	OMDbBaseURL:        "https://www.omdbapi.com/",
	OMDbTimeout:        6 * time.Second,
	OMDbRequestsPerSec: 10,
	KinopoiskBaseURL:   "https://api.kinopoisk.dev/v1.4",
	KinopoiskTimeout:   12 * time.Second,
	KinopoiskPerSec:    5,
}

var CollectorConfig = struct {
	PoolSize            int
	EnrichLimit         int
	EnrichWorkers       int
	SeedLimit           int
	SeedStrictRating    float64
	SeedRelaxedRating   float64
	SeedMinCount        int
	SeedSearchWindow    int
	SeedMinMatchScore   float64
	RecommendationsEach int
	DiscoverThreshold   int
	DiscoverMinVotes    int
	DiscoverGenreIDs    int
	PreferredGenres     int
	WeightedGenres      int
	FallbackGenres      int
	FallbackDocLimit    int
	QueryMaxTerms       int
	QueryMaxSearches    int
	QueryResultsEach    int
	QueryFallbackTerms  int
	QueryFallbackLimit  int
	QueryMinCandidates  int
	ProfileTopGenres    int
	ProfileFavorites    int
	FingerprintGenres   int
	FingerprintFavorite int
}{
	PoolSize:            80,
	EnrichLimit:         12,
	EnrichWorkers:       6,
	SeedLimit:           4,
	SeedStrictRating:    8.0,
	SeedRelaxedRating:   6.5,
	SeedMinCount:        3,
	SeedSearchWindow:    8,
	SeedMinMatchScore:   1.5,
	RecommendationsEach: 15,
	DiscoverThreshold:   25,
	DiscoverMinVotes:    700,
	DiscoverGenreIDs:    3,
	PreferredGenres:     5,
	WeightedGenres:      8,
	FallbackGenres:      4,
	FallbackDocLimit:    20,
	QueryMaxTerms:       6,
	QueryMaxSearches:    7,
	QueryResultsEach:    20,
	QueryFallbackTerms:  4,
	QueryFallbackLimit:  16,
	QueryMinCandidates:  8,
	ProfileTopGenres:    8,
	ProfileFavorites:    25,
	FingerprintGenres:   6,
	FingerprintFavorite: 10,
}

// FallbackDefaultGenres are used when the profile has no rated genres.
// Kinopoisk genre names are Russian.
var FallbackDefaultGenres = []string{"триллер", "драма"}

// QueryFallbackGenreHint is the genre hint for query-driven Kinopoisk supplements
// when the profile has no top genre.
const QueryFallbackGenreHint = "триллер"

var SelectionConfig = struct {
	RandomTopPool  int
	MinWeight      float64
	MinRecommended int
	RecentPicks    int
}{
	RandomTopPool:  35,
	MinWeight:      0.1,
	MinRecommended: 2000,
	RecentPicks:    200,
}

var StringLimits = struct {
	CandidatesSummary  int
	CandidatesMaxItems int
	SummaryPlot        int
	WatchedPreview     int
	ProfileGenres      int
	ProfileFavorites   int
	ErrorMessage       int
	RecentErrors       int
	CaptionPlot        int
	DetailsCardPlot    int
	SummaryGenres      int
	ReasonSharedGenres int
	QueryReasonGenres  int
	MaxQueryLength     int
	DiagErrors         int
}{
	CandidatesSummary:  7000,
	CandidatesMaxItems: 35,
	SummaryPlot:        140,
	WatchedPreview:     1800,
	ProfileGenres:      5,
	ProfileFavorites:   8,
	ErrorMessage:       400,
	RecentErrors:       100,
	CaptionPlot:        240,
	DetailsCardPlot:    600,
	SummaryGenres:      3,
	ReasonSharedGenres: 3,
	QueryReasonGenres:  2,
	MaxQueryLength:     300,
	DiagErrors:         10,
}
