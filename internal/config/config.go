package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/movie-advisor-bot/internal/constants"
)

type Config struct {
	Bot       BotConfig
	TMDB      TMDBConfig
	OMDb      OMDbConfig
	Kinopoisk KinopoiskConfig
	Retry     RetryConfig
	Cooldown  CooldownConfig
	Recommend RecommendConfig
	Sheets    SheetsConfig
	Redis     RedisConfig
	Logging   LoggingConfig
}

type BotConfig struct {
	Prefix string
}

type TMDBConfig struct {
	APIKey            string
	BaseURLs          []string
	Language          string
	Region            string
	Timeout           time.Duration
	RequestsPerSecond float64
	SkipLoopbackHosts bool
}

type OMDbConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

type KinopoiskConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

type CooldownConfig struct {
	Window time.Duration
}

type RecommendConfig struct {
	PoolSize        int
	EnrichLimit     int
	RandomTopPool   int
	MinYear         int
	SummaryMaxItems int
	SummaryMaxChars int
}

type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	Range           string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Bot: BotConfig{
			Prefix: getEnv("BOT_PREFIX", "/"),
		},
		TMDB: TMDBConfig{
			APIKey:            getEnv("TMDB_API_KEY", ""),
			BaseURLs:          parseCommaSeparated(getEnv("TMDB_BASE_URLS", strings.Join(constants.APIConfig.TMDBBaseURLs, ","))),
			Language:          getEnv("TMDB_LANGUAGE", "ru-RU"),
			Region:            getEnv("TMDB_REGION", "RU"),
			Timeout:           getEnvDuration("TMDB_TIMEOUT_SECONDS", constants.APIConfig.TMDBTimeout),
			RequestsPerSecond: getEnvFloat("TMDB_REQUESTS_PER_SECOND", constants.APIConfig.TMDBRequestsPerSec),
			SkipLoopbackHosts: getEnvBool("TMDB_SKIP_LOOPBACK_HOSTS", true),
		},
		OMDb: OMDbConfig{
			APIKey:            getEnv("OMDB_API_KEY", ""),
			BaseURL:           getEnv("OMDB_BASE_URL", constants.APIConfig.OMDbBaseURL),
			Timeout:           getEnvDuration("OMDB_TIMEOUT_SECONDS", constants.APIConfig.OMDbTimeout),
			RequestsPerSecond: getEnvFloat("OMDB_REQUESTS_PER_SECOND", constants.APIConfig.OMDbRequestsPerSec),
		},
		Kinopoisk: KinopoiskConfig{
			APIKey:            getEnv("KINOPOISK_API_KEY", ""),
			BaseURL:           getEnv("KINOPOISK_BASE_URL", constants.APIConfig.KinopoiskBaseURL),
			Timeout:           getEnvDuration("KINOPOISK_TIMEOUT_SECONDS", constants.APIConfig.KinopoiskTimeout),
			RequestsPerSecond: getEnvFloat("KINOPOISK_REQUESTS_PER_SECOND", constants.APIConfig.KinopoiskPerSec),
		},
		Retry: RetryConfig{
			MaxRetries: getEnvInt("EXTERNAL_API_MAX_RETRIES", constants.RetryConfig.MaxAttempts),
			BaseDelay:  getEnvDuration("EXTERNAL_API_RETRY_BASE_DELAY_SECONDS", constants.RetryConfig.BaseDelay),
		},
		Cooldown: CooldownConfig{
			Window: getEnvDuration("PROVIDER_COOLDOWN_SECONDS", constants.CooldownConfig.Window),
		},
		Recommend: RecommendConfig{
			PoolSize:        getEnvInt("RECOMMEND_POOL_SIZE", constants.CollectorConfig.PoolSize),
			EnrichLimit:     getEnvInt("RECOMMEND_ENRICH_LIMIT", constants.CollectorConfig.EnrichLimit),
			RandomTopPool:   getEnvInt("RECOMMEND_RANDOM_TOP_POOL", constants.SelectionConfig.RandomTopPool),
			MinYear:         getEnvInt("RECOMMEND_MIN_YEAR", constants.SelectionConfig.MinRecommended),
			SummaryMaxItems: getEnvInt("RECOMMEND_SUMMARY_MAX_ITEMS", constants.StringLimits.CandidatesMaxItems),
			SummaryMaxChars: getEnvInt("RECOMMEND_SUMMARY_MAX_CHARS", constants.StringLimits.CandidatesSummary),
		},
		Sheets: SheetsConfig{
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS", ""),
			SpreadsheetID:   getEnv("GOOGLE_SHEET_ID", ""),
			Range:           getEnv("GOOGLE_SHEET_RANGE", "A1:Z"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects only settings the core cannot run with. Missing provider keys are
// not errors: those providers report themselves as disabled.
func (c *Config) Validate() error {
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("EXTERNAL_API_MAX_RETRIES must be at least 1")
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("EXTERNAL_API_RETRY_BASE_DELAY_SECONDS must not be negative")
	}
	if c.Recommend.PoolSize < 1 {
		return fmt.Errorf("RECOMMEND_POOL_SIZE must be positive")
	}
	if c.Recommend.EnrichLimit < 0 {
		return fmt.Errorf("RECOMMEND_ENRICH_LIMIT must not be negative")
	}
	if len(c.TMDB.BaseURLs) == 0 {
		return fmt.Errorf("TMDB_BASE_URLS must list at least one host")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// getEnvDuration reads a number of seconds (fractions allowed).
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil && seconds >= 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}
