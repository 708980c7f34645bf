package gateway

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

// Resolver resolves hostnames before a request is sent. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// ClientConfig parameterizes one provider's HTTP access.
type ClientConfig struct {
	Name              string
	BaseURLs          []string
	Timeout           time.Duration
	MaxRetries        int
	BaseDelay         time.Duration
	RetryableStatuses []int
	RequestsPerSecond float64
	CooldownWindow    time.Duration
	// Resolver enables the loopback check; nil sends requests without resolving first.
	Resolver Resolver
}

// Client is the retrying JSON client shared by all provider adapters. It retries
// transient failures per host, fails over between hosts and stops calling the
// provider for a cooldown window once every host is exhausted.
type Client struct {
	name       string
	baseURLs   []string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	retryable  map[int]struct{}
	resolver   Resolver
	limiter    *rate.Limiter
	cooldown   *Cooldown
	sink       domain.ErrorSink
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig, httpClient *http.Client, sink domain.ErrorSink, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = domain.NopErrorSink{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	statuses := cfg.RetryableStatuses
	if len(statuses) == 0 {
		statuses = constants.RetryableStatusCodes
	}
	retryable := make(map[int]struct{}, len(statuses))
	for _, status := range statuses {
		retryable[status] = struct{}{}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}

	baseURLs := make([]string, 0, len(cfg.BaseURLs))
	for _, base := range cfg.BaseURLs {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			baseURLs = append(baseURLs, trimmed)
		}
	}

	return &Client{
		name:       cfg.Name,
		baseURLs:   baseURLs,
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  cfg.BaseDelay,
		retryable:  retryable,
		resolver:   cfg.Resolver,
		limiter:    rate.NewLimiter(limit, burst),
		cooldown:   NewCooldown(cfg.Name, cfg.CooldownWindow, logger),
		sink:       sink,
		logger:     logger,
		sleep:      sleepContext,
	}
}

func (c *Client) Name() string {
	return c.name
}

// CoolingDown reports whether calls are currently being suppressed.
func (c *Client) CoolingDown() bool {
	return c.cooldown.Active()
}

// GetJSON issues a GET for path on the first usable host and decodes the JSON
// object response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, headers http.Header, dest any) error {
	return c.cooldown.Run(func() error {
		return c.fetch(ctx, path, params, headers, dest)
	}, func(err error) bool {
		return ctx.Err() == nil && !errors.IsPermanent(err)
	})
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, headers http.Header, dest any) error {
	var lastErr error
	attempted := false

	for _, base := range c.baseURLs {
		if c.resolvesToLoopback(ctx, base) {
			continue
		}
		attempted = true

		err := c.fetchFromHost(ctx, base, path, params, headers, dest)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || isFinal(err) {
			return err
		}

		lastErr = err
		c.logger.Warn("Provider host exhausted, failing over",
			zap.String("provider", c.name),
			zap.String("host", base),
			zap.Error(err),
		)
	}

	if !attempted {
		err := errors.NewTemporaryAPIError(c.name, "no reachable hosts (loopback DNS)", 0, nil)
		c.sink.Record(c.name, err)
		return err
	}
	return lastErr
}

func (c *Client) fetchFromHost(ctx context.Context, base, path string, params url.Values, headers http.Header, dest any) error {
	reqURL := base + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, status, err := c.do(ctx, reqURL, headers)
		switch {
		case err != nil:
			lastErr = errors.NewTemporaryAPIError(c.name, "request failed", 0, err)
		case c.isRetryable(status):
			lastErr = errors.NewTemporaryAPIError(c.name, fmt.Sprintf("temporary error: HTTP %d", status), status, nil)
		case status >= 400:
			apiErr := errors.NewAPIError(c.name, fmt.Sprintf("HTTP %d", status), status, map[string]any{
				"path": path,
				"body": util.TruncateString(strings.TrimSpace(string(body)), 300),
			})
			c.sink.Record(c.name, apiErr)
			return apiErr
		default:
			decodeErr := decodeObject(body, dest)
			if decodeErr == nil {
				return nil
			}
			if stderrors.Is(decodeErr, errMalformedJSON) {
				lastErr = errors.NewTemporaryAPIError(c.name, "malformed JSON", status, decodeErr)
				break
			}
			apiErr := errors.NewAPIError(c.name, decodeErr.Error(), status, map[string]any{"path": path})
			c.sink.Record(c.name, apiErr)
			return apiErr
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < c.maxRetries {
			delay := c.backoff(attempt)
			c.logger.Warn("Provider request failed, retrying",
				zap.String("provider", c.name),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	c.sink.Record(c.name, lastErr)
	return lastErr
}

func (c *Client) do(ctx context.Context, reqURL string, headers http.Header) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, stripURL(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (c *Client) isRetryable(status int) bool {
	_, ok := c.retryable[status]
	return ok
}

func (c *Client) backoff(attempt int) time.Duration {
	base := c.baseDelay
	if base < constants.RetryConfig.MinDelay {
		base = constants.RetryConfig.MinDelay
	}
	return base * time.Duration(math.Pow(2, float64(attempt-1)))
}

// resolvesToLoopback reports whether any address of the base URL's host is a
// loopback address. Resolution failures leave the host usable.
func (c *Client) resolvesToLoopback(ctx context.Context, base string) bool {
	if c.resolver == nil {
		return false
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Hostname() == "" {
		return false
	}

	addrs, err := c.resolver.LookupIPAddr(ctx, parsed.Hostname())
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		if addr.IP.IsLoopback() {
			c.logger.Warn("Skipping provider host resolving to loopback",
				zap.String("provider", c.name),
				zap.String("host", parsed.Hostname()),
				zap.String("addr", addr.IP.String()),
			)
			return true
		}
	}
	return false
}

var (
	errMalformedJSON = stderrors.New("malformed JSON")
	errNotObject     = stderrors.New("non-object JSON payload")
)

func decodeObject(body []byte, dest any) error {
	if !json.Valid(body) {
		return errMalformedJSON
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return fmt.Errorf("unexpected payload shape: %w", err)
	}
	return nil
}

// isFinal reports errors that must not fail over to another host: any HTTP
// status outside the retryable set, or an unusable success payload.
func isFinal(err error) bool {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	return !apiErr.Temporary && apiErr.StatusCode > 0
}

// stripURL drops the request URL from transport errors so credentials passed as
// query parameters never reach logs.
func stripURL(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
