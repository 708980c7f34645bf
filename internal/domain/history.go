package domain

import "context"

// WatchHistoryRow is one loosely-typed spreadsheet row keyed by header name.
type WatchHistoryRow map[string]string

// HistoryStore exposes the watch history read-only.
type HistoryStore interface {
	ReadAll(ctx context.Context) ([]WatchHistoryRow, error)
}
