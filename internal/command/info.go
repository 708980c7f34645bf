package command

import (
	"context"

	"github.com/kapu/movie-advisor-bot/internal/adapter"
	"github.com/kapu/movie-advisor-bot/internal/domain"
)

type StatsCommand struct {
	deps *Dependencies
}

func NewStatsCommand(deps *Dependencies) *StatsCommand {
	return &StatsCommand{deps: deps}
}

func (c *StatsCommand) Name() string {
	return domain.CommandStats.String()
}

func (c *StatsCommand) Description() string {
	return "сводка вашего профиля"
}

func (c *StatsCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	p, err := c.deps.loadProfile(ctx)
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatProfileSummary(p))
}

// DiagCommand reports provider health and the latest recorded failures.
type DiagCommand struct {
	deps *Dependencies
}

func NewDiagCommand(deps *Dependencies) *DiagCommand {
	return &DiagCommand{deps: deps}
}

func (c *DiagCommand) Name() string {
	return domain.CommandDiag.String()
}

func (c *DiagCommand) Description() string {
	return "состояние провайдеров"
}

func (c *DiagCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	limit, _ := params["limit"].(int)

	var events []domain.ErrorEvent
	if c.deps.Errors != nil {
		events = c.deps.Errors.Recent(limit)
	}
	var statuses []adapter.ProviderStatus
	if c.deps.Probe != nil {
		statuses = c.deps.Probe(ctx)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatDiagnostics(statuses, events))
}

type HelpCommand struct {
	deps *Dependencies
}

func NewHelpCommand(deps *Dependencies) *HelpCommand {
	return &HelpCommand{deps: deps}
}

func (c *HelpCommand) Name() string {
	return domain.CommandHelp.String()
}

func (c *HelpCommand) Description() string {
	return "справка по командам"
}

func (c *HelpCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatHelp())
}
