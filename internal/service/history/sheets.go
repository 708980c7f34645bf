package history

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/cache"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

const (
	SourceSheets = "sheets"
	recordsKey   = "records"
)

// Config locates the watch-history spreadsheet.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	Range           string
}

type valuesFetcher func(ctx context.Context) ([][]any, error)

// SheetsStore reads the watch history from a Google spreadsheet. The first row
// holds the column headers.
type SheetsStore struct {
	fetch   valuesFetcher
	records *cache.TTLCache[string, []domain.WatchHistoryRow]
	logger  *zap.Logger
}

// NewSheetsStore authenticates with a service-account key file and opens the
// spreadsheet read-only.
func NewSheetsStore(ctx context.Context, cfg Config, logger *zap.Logger) (*SheetsStore, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.NewValidationError("spreadsheet id is required", "GOOGLE_SHEET_ID", cfg.SpreadsheetID)
	}

	credBytes, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, credBytes, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	service, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	readRange := strings.TrimSpace(cfg.Range)
	if readRange == "" {
		readRange = "A1:Z"
	}

	fetch := func(ctx context.Context) ([][]any, error) {
		resp, err := service.Spreadsheets.Values.Get(cfg.SpreadsheetID, readRange).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	}

	store := newSheetsStore(fetch, logger)
	store.logger.Info("Sheets history store initialized",
		zap.String("range", readRange))
	return store, nil
}

func newSheetsStore(fetch valuesFetcher, logger *zap.Logger) *SheetsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsStore{
		fetch:   fetch,
		records: cache.NewTTLCache[string, []domain.WatchHistoryRow](constants.CacheTTL.HistoryRecords, 1),
		logger:  logger,
	}
}

// ReadAll returns every history row keyed by header. Results are cached for a
// few minutes; Invalidate forces the next call to hit the spreadsheet.
func (s *SheetsStore) ReadAll(ctx context.Context) ([]domain.WatchHistoryRow, error) {
	if rows, ok := s.records.Get(recordsKey); ok {
		return cloneRows(rows), nil
	}

	values, err := s.fetch(ctx)
	if err != nil {
		return nil, wrapSheetsError(err)
	}

	rows := RowsFromValues(values)
	s.records.Set(recordsKey, rows)
	s.logger.Info("Watch history loaded", zap.Int("rows", len(rows)))
	return cloneRows(rows), nil
}

// Invalidate drops the cached records.
func (s *SheetsStore) Invalidate() {
	s.records.Delete(recordsKey)
}

func wrapSheetsError(err error) error {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return errors.NewAPIError(SourceSheets, apiErr.Message, apiErr.Code, map[string]any{
			"reason": firstReason(apiErr),
		})
	}
	return errors.NewServiceError("failed to read watch history", SourceSheets, "values.get", err)
}

func firstReason(apiErr *googleapi.Error) string {
	if len(apiErr.Errors) == 0 {
		return ""
	}
	return apiErr.Errors[0].Reason
}

// RowsFromValues converts a raw value grid into header-keyed rows. Blank
// headers are skipped, short rows get empty values and fully blank rows are
// dropped.
func RowsFromValues(values [][]any) []domain.WatchHistoryRow {
	if len(values) == 0 {
		return []domain.WatchHistoryRow{}
	}

	headers := make([]string, len(values[0]))
	for i, cell := range values[0] {
		headers[i] = cellString(cell)
	}

	rows := make([]domain.WatchHistoryRow, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make(domain.WatchHistoryRow, len(headers))
		blank := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if i < len(raw) {
				value = cellString(raw[i])
			}
			if value != "" {
				blank = false
			}
			row[header] = value
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}

func cellString(cell any) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(cell))
}

func cloneRows(rows []domain.WatchHistoryRow) []domain.WatchHistoryRow {
	out := make([]domain.WatchHistoryRow, len(rows))
	for i, row := range rows {
		copied := make(domain.WatchHistoryRow, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out[i] = copied
	}
	return out
}
