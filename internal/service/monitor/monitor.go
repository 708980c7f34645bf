package monitor

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// ErrorMonitor keeps the most recent provider failures for diagnostics and
// logs every one of them.
type ErrorMonitor struct {
	mu       sync.Mutex
	events   []domain.ErrorEvent
	next     int
	full     bool
	capacity int
	now      func() time.Time
	logger   *zap.Logger
}

func NewErrorMonitor(capacity int, logger *zap.Logger) *ErrorMonitor {
	if capacity < 1 {
		capacity = constants.StringLimits.RecentErrors
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorMonitor{
		events:   make([]domain.ErrorEvent, capacity),
		capacity: capacity,
		now:      time.Now,
		logger:   logger,
	}
}

// Record stores err under source. Nil errors are ignored.
func (m *ErrorMonitor) Record(source string, err error) {
	if m == nil || err == nil {
		return
	}

	event := domain.ErrorEvent{
		Timestamp: m.now(),
		Source:    source,
		ErrorType: fmt.Sprintf("%T", err),
		Message:   util.TrimRunes(err.Error(), constants.StringLimits.ErrorMessage),
	}

	m.mu.Lock()
	m.events[m.next] = event
	m.next = (m.next + 1) % m.capacity
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()

	m.logger.Error("Provider error recorded",
		zap.String("source", source),
		zap.String("type", event.ErrorType),
		zap.String("message", event.Message),
	)
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (m *ErrorMonitor) Recent(limit int) []domain.ErrorEvent {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = m.capacity
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]domain.ErrorEvent, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.next - 1 - i + m.capacity) % m.capacity
		out = append(out, m.events[idx])
	}
	return out
}

// Len returns the number of stored events.
func (m *ErrorMonitor) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return m.capacity
	}
	return m.next
}
