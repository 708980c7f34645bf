package command

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/adapter"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/profile"
	"github.com/kapu/movie-advisor-bot/internal/service/recommend"
	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// Advisor is the recommendation surface the commands use.
type Advisor interface {
	Recommend(ctx context.Context, p *domain.TasteProfile, req recommend.Request) ([]domain.CandidateMovie, error)
	PickRandom(ctx context.Context, p *domain.TasteProfile, recent []string) (*domain.CandidateMovie, error)
	Details(ctx context.Context, title string, year int) (*domain.MovieDetails, error)
}

// ErrorLog is the failure journal read by the diag command.
type ErrorLog interface {
	domain.ErrorSink
	Recent(limit int) []domain.ErrorEvent
}

type Dependencies struct {
	Advisor     Advisor
	History     domain.HistoryStore
	Errors      ErrorLog
	Probe       func(ctx context.Context) []adapter.ProviderStatus
	Formatter   *adapter.ResponseFormatter
	SendMessage func(room, message string) error
	SendError   func(room, message string) error
	Logger      *zap.Logger
}

func (d *Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// loadProfile reads the whole history and builds a fresh taste profile.
func (d *Dependencies) loadProfile(ctx context.Context) (*domain.TasteProfile, error) {
	if d.History == nil {
		return nil, errors.NewValidationError("Таблица с историей просмотров не настроена.", "GOOGLE_SHEET_ID", "")
	}
	rows, err := d.History.ReadAll(ctx)
	if err != nil {
		if d.Errors != nil {
			d.Errors.Record("history", err)
		}
		return nil, err
	}
	return profile.Build(rows), nil
}

// replyError logs err and sends its user-facing text to the room.
func (d *Dependencies) replyError(cmdCtx *domain.CommandContext, command string, err error) error {
	d.logger().Warn("Command failed",
		zap.String("command", command),
		zap.String("room", cmdCtx.Room),
		zap.Error(err),
	)
	return d.SendError(cmdCtx.Room, userMessage(err))
}

func userMessage(err error) string {
	var validationErr *errors.ValidationError
	switch {
	case stderrors.Is(err, errors.ErrRecommendationsUnavailable):
		return "Сейчас нет доступных источников рекомендаций. Попробуйте позже."
	case stderrors.As(err, &validationErr):
		return validationErr.Message
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return "Запрос прерван по таймауту."
	default:
		return "Не удалось выполнить запрос."
	}
}
