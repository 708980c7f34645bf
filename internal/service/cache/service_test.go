package cache

import (
	stderrors "errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

func TestNewCacheServiceReportsUnreachableRedis(t *testing.T) {
	svc, err := NewCacheService(CacheConfig{Host: "127.0.0.1", Port: 1}, zap.NewNop())
	if err == nil {
		_ = svc.Close()
		t.Fatal("expected error for unreachable redis")
	}
	var cacheErr *errors.CacheError
	if !stderrors.As(err, &cacheErr) {
		t.Fatalf("expected CacheError, got %T", err)
	}
	if cacheErr.Operation != "ping" {
		t.Fatalf("expected ping operation, got %q", cacheErr.Operation)
	}
}
