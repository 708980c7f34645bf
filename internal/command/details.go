package command

import (
	"context"

	"github.com/kapu/movie-advisor-bot/internal/domain"
)

type DetailsCommand struct {
	deps *Dependencies
}

func NewDetailsCommand(deps *Dependencies) *DetailsCommand {
	return &DetailsCommand{deps: deps}
}

func (c *DetailsCommand) Name() string {
	return domain.CommandDetails.String()
}

func (c *DetailsCommand) Description() string {
	return "карточка фильма"
}

func (c *DetailsCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	title, _ := params["title"].(string)
	year, _ := params["year"].(int)
	if title == "" {
		return c.deps.SendError(cmdCtx.Room, "Укажите название фильма.")
	}

	details, err := c.deps.Advisor.Details(ctx, title, year)
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatDetailsCard(details))
}
