package app

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/adapter"
	"github.com/kapu/movie-advisor-bot/internal/command"
	"github.com/kapu/movie-advisor-bot/internal/config"
	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/cache"
	"github.com/kapu/movie-advisor-bot/internal/service/gateway"
	"github.com/kapu/movie-advisor-bot/internal/service/history"
	"github.com/kapu/movie-advisor-bot/internal/service/monitor"
	"github.com/kapu/movie-advisor-bot/internal/service/recommend"
)

// Container bundles the assembled advisor services.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	MessageAdapter *adapter.MessageAdapter
	Formatter      *adapter.ResponseFormatter
	Monitor        *monitor.ErrorMonitor
	Advisor        *recommend.Advisor
	// History is nil when no spreadsheet is configured.
	History domain.HistoryStore

	tmdb      *gateway.TMDBClient
	omdb      *gateway.OMDbClient
	kinopoisk *gateway.KinopoiskClient
	redis     pinger
	closers   []func()
}

type pinger interface {
	IsConnected(ctx context.Context) bool
}

// Build assembles caches, provider clients and the recommendation pipeline.
// Only Redis and the spreadsheet client touch the network here.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	errorMonitor := monitor.NewErrorMonitor(constants.StringLimits.RecentErrors, logger)

	// Provider clients
	var resolver gateway.Resolver
	if cfg.TMDB.SkipLoopbackHosts {
		resolver = net.DefaultResolver
	}

	tmdbHTTP := gateway.NewClient(gateway.ClientConfig{
		Name:              gateway.ProviderTMDB,
		BaseURLs:          cfg.TMDB.BaseURLs,
		Timeout:           cfg.TMDB.Timeout,
		MaxRetries:        cfg.Retry.MaxRetries,
		BaseDelay:         cfg.Retry.BaseDelay,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		CooldownWindow:    cfg.Cooldown.Window,
		Resolver:          resolver,
	}, nil, errorMonitor, logger)

	omdbHTTP := gateway.NewClient(gateway.ClientConfig{
		Name:              gateway.ProviderOMDb,
		BaseURLs:          []string{cfg.OMDb.BaseURL},
		Timeout:           cfg.OMDb.Timeout,
		MaxRetries:        cfg.Retry.MaxRetries,
		BaseDelay:         cfg.Retry.BaseDelay,
		RequestsPerSecond: cfg.OMDb.RequestsPerSecond,
		CooldownWindow:    cfg.Cooldown.Window,
	}, nil, errorMonitor, logger)

	kinopoiskHTTP := gateway.NewClient(gateway.ClientConfig{
		Name:              gateway.ProviderKinopoisk,
		BaseURLs:          []string{cfg.Kinopoisk.BaseURL},
		Timeout:           cfg.Kinopoisk.Timeout,
		MaxRetries:        cfg.Retry.MaxRetries,
		BaseDelay:         cfg.Retry.BaseDelay,
		RequestsPerSecond: cfg.Kinopoisk.RequestsPerSecond,
		CooldownWindow:    cfg.Cooldown.Window,
	}, nil, errorMonitor, logger)

	genreCache := cache.NewTTLCache[string, map[int]string](constants.CacheTTL.GenreTaxonomy, 1)
	lookupCache := cache.NewTTLCache[string, *gateway.OMDbResult](constants.CacheTTL.DetailsFound, constants.CacheLimits.DetailsEntries)

	tmdb := gateway.NewTMDBClient(tmdbHTTP, gateway.TMDBConfig{
		APIKey:   cfg.TMDB.APIKey,
		Language: cfg.TMDB.Language,
		Region:   cfg.TMDB.Region,
	}, genreCache, logger)
	omdb := gateway.NewOMDbClient(omdbHTTP, cfg.OMDb.APIKey, lookupCache, logger)
	kinopoisk := gateway.NewKinopoiskClient(kinopoiskHTTP, cfg.Kinopoisk.APIKey)

	logger.Info("Providers configured",
		zap.Bool("tmdb", tmdb.Enabled()),
		zap.Bool("omdb", omdb.Enabled()),
		zap.Bool("kinopoisk", kinopoisk.Enabled()),
		zap.Strings("tmdb_hosts", cfg.TMDB.BaseURLs),
	)

	// Shared cache
	var shared recommend.SharedStore
	var redisCache pinger
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, using in-process caches only", zap.Error(cacheErr))
		} else {
			shared = cacheSvc
			redisCache = cacheSvc
			closers = append(closers, func() {
				_ = cacheSvc.Close()
			})
		}
	}

	// Recommendation pipeline
	recommendCfg := recommend.Config{
		PoolSize:      cfg.Recommend.PoolSize,
		EnrichLimit:   cfg.Recommend.EnrichLimit,
		RandomTopPool: cfg.Recommend.RandomTopPool,
		MinYear:       cfg.Recommend.MinYear,
	}
	enricher := recommend.NewEnricher(omdb, constants.CollectorConfig.EnrichWorkers, errorMonitor, logger)
	collector := recommend.NewCollector(tmdb, kinopoisk, enricher, recommend.NewPoolCache(), recommendCfg, logger)
	details := recommend.NewDetailsService(tmdb, omdb, kinopoisk, shared, logger)
	advisor := recommend.NewAdvisor(collector, details, recommendCfg, rand.New(rand.NewSource(time.Now().UnixNano())), logger)

	// Watch history
	var historyStore domain.HistoryStore
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsStore, sheetsErr := history.NewSheetsStore(ctx, history.Config{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Range:           cfg.Sheets.Range,
		}, logger)
		if sheetsErr != nil {
			return nil, fmt.Errorf("failed to create sheets history store: %w", sheetsErr)
		}
		historyStore = sheetsStore
	} else {
		logger.Warn("GOOGLE_SHEET_ID is not set, watch history is unavailable")
	}

	return &Container{
		Config:         cfg,
		Logger:         logger,
		MessageAdapter: adapter.NewMessageAdapter(cfg.Bot.Prefix),
		Formatter:      adapter.NewResponseFormatter(cfg.Bot.Prefix).WithSummaryLimits(cfg.Recommend.SummaryMaxItems, cfg.Recommend.SummaryMaxChars),
		Monitor:        errorMonitor,
		Advisor:        advisor,
		History:        historyStore,
		tmdb:           tmdb,
		omdb:           omdb,
		kinopoisk:      kinopoisk,
		redis:          redisCache,
		closers:        closers,
	}, nil
}

// NewDispatcher builds the command registry over the assembled services.
// send and sendError deliver replies to a room.
func (c *Container) NewDispatcher(send, sendError func(room, message string) error) (command.Dispatcher, error) {
	if c == nil || c.Advisor == nil {
		return nil, fmt.Errorf("advisor not initialized")
	}
	if send == nil || sendError == nil {
		return nil, fmt.Errorf("message callbacks not configured")
	}
	deps := &command.Dependencies{
		Advisor:     c.Advisor,
		History:     c.History,
		Errors:      c.Monitor,
		Probe:       c.Diagnostics,
		Formatter:   c.Formatter,
		SendMessage: send,
		SendError:   sendError,
		Logger:      c.Logger,
	}
	return command.NewSequentialDispatcher(command.NewDefaultRegistry(deps), command.DefaultNormalize), nil
}

// Diagnostics probes the providers and returns their status lines. Redis gets a
// line only when it is in use.
func (c *Container) Diagnostics(ctx context.Context) []adapter.ProviderStatus {
	tmdbOK, tmdbDetail := recommend.ProbeTMDB(ctx, c.tmdb)
	kinopoiskOK, kinopoiskDetail := recommend.ProbeKinopoisk(ctx, c.kinopoisk)

	omdbOK, omdbDetail := false, "disabled"
	if c.omdb.Enabled() {
		omdbOK, omdbDetail = true, "configured"
	}

	statuses := []adapter.ProviderStatus{
		{Name: gateway.ProviderTMDB, OK: tmdbOK, Detail: withCooldown(tmdbDetail, c.tmdb.CoolingDown())},
		{Name: gateway.ProviderOMDb, OK: omdbOK, Detail: withCooldown(omdbDetail, c.omdb.CoolingDown())},
		{Name: gateway.ProviderKinopoisk, OK: kinopoiskOK, Detail: withCooldown(kinopoiskDetail, c.kinopoisk.CoolingDown())},
	}
	if c.redis != nil {
		status := adapter.ProviderStatus{Name: "redis", Detail: "unreachable"}
		if c.redis.IsConnected(ctx) {
			status.OK, status.Detail = true, "connected"
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func withCooldown(detail string, coolingDown bool) string {
	if coolingDown {
		return detail + ", cooling down"
	}
	return detail
}

// Close releases external connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
