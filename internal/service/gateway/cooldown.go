package gateway

import (
	stderrors "errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

// Cooldown suppresses calls to a provider for a fixed window after a call
// exhausted every host. It trips on the first counted failure and lets a single
// probe through once the window has passed.
type Cooldown struct {
	name     string
	window   time.Duration
	breaker  *gobreaker.CircuitBreaker[struct{}]
	mu       sync.Mutex
	openedAt time.Time
}

func NewCooldown(name string, window time.Duration, logger *zap.Logger) *Cooldown {
	if window <= 0 {
		window = constants.CooldownConfig.Window
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cooldown{name: name, window: window}
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     window,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				c.mu.Lock()
				c.openedAt = time.Now()
				c.mu.Unlock()
				logger.Error("Provider entered cooldown",
					zap.String("provider", name),
					zap.Duration("window", window),
				)
				return
			}
			logger.Info("Provider cooldown state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Run executes fn unless the provider is cooling down. Only errors for which
// counted returns true open the window; the error from fn is returned as is.
func (c *Cooldown) Run(fn func() error, counted func(error) bool) error {
	var callErr error
	_, err := c.breaker.Execute(func() (struct{}, error) {
		callErr = fn()
		if callErr != nil && counted(callErr) {
			return struct{}{}, callErr
		}
		return struct{}{}, nil
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.NewCooldownError(c.name, c.RetryAfter(), err)
	}
	return callErr
}

func (c *Cooldown) Active() bool {
	return c.breaker.State() == gobreaker.StateOpen
}

// RetryAfter is the time left in the current window, zero when not cooling down.
func (c *Cooldown) RetryAfter() time.Duration {
	if !c.Active() {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.window - time.Since(c.openedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
