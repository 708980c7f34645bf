package history

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

func TestRowsFromValues(t *testing.T) {
	values := [][]any{
		{"Фильм", " Год ", "Оценка", ""},
		{"Интерстеллар", 2014, "9", "ignored"},
		{"", "", ""},
		{"Дюна"},
	}

	rows := RowsFromValues(values)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0]["Фильм"] != "Интерстеллар" || rows[0]["Год"] != "2014" || rows[0]["Оценка"] != "9" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if _, ok := rows[0][""]; ok {
		t.Error("blank header should be skipped")
	}
	if rows[1]["Фильм"] != "Дюна" || rows[1]["Год"] != "" {
		t.Errorf("unexpected short row: %v", rows[1])
	}

	if got := RowsFromValues(nil); len(got) != 0 {
		t.Errorf("expected no rows, got %v", got)
	}
}

func TestReadAllCachesUntilInvalidated(t *testing.T) {
	calls := 0
	store := newSheetsStore(func(context.Context) ([][]any, error) {
		calls++
		return [][]any{{"Title", "Rating"}, {"Arrival", "8"}}, nil
	}, zap.NewNop())
	ctx := context.Background()

	rows, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	rows[0]["Title"] = "mutated"

	again, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a cached read, got %d fetches", calls)
	}
	if again[0]["Title"] != "Arrival" {
		t.Errorf("cached rows were mutated: %v", again[0])
	}

	store.Invalidate()
	if _, err := store.ReadAll(ctx); err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a fresh fetch after Invalidate, got %d", calls)
	}
}

func TestReadAllWrapsAPIErrors(t *testing.T) {
	store := newSheetsStore(func(context.Context) ([][]any, error) {
		return nil, &googleapi.Error{
			Code:    http.StatusForbidden,
			Message: "The caller does not have permission",
			Errors:  []googleapi.ErrorItem{{Reason: "forbidden"}},
		}
	}, nil)

	_, err := store.ReadAll(context.Background())
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Source != SourceSheets || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if !errors.IsPermanent(err) {
		t.Error("expected a permission failure to be permanent")
	}
}

func TestReadAllWrapsOtherErrors(t *testing.T) {
	store := newSheetsStore(func(context.Context) ([][]any, error) {
		return nil, stderrors.New("dial tcp: timeout")
	}, nil)

	_, err := store.ReadAll(context.Background())
	var serviceErr *errors.ServiceError
	if !stderrors.As(err, &serviceErr) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
}
