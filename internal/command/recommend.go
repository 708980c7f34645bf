package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/recommend"
)

// RecommendCommand lists profile-driven candidates under a profile summary.
type RecommendCommand struct {
	deps *Dependencies
}

func NewRecommendCommand(deps *Dependencies) *RecommendCommand {
	return &RecommendCommand{deps: deps}
}

func (c *RecommendCommand) Name() string {
	return domain.CommandRecommend.String()
}

func (c *RecommendCommand) Description() string {
	return "подборка по вашему профилю"
}

func (c *RecommendCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	p, err := c.deps.loadProfile(ctx)
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}

	items, err := c.deps.Advisor.Recommend(ctx, p, recommend.Request{})
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}

	c.deps.logger().Info("Recommendations ready",
		zap.String("room", cmdCtx.Room),
		zap.Int("count", len(items)),
	)

	f := c.deps.Formatter
	return c.deps.SendMessage(cmdCtx.Room, f.FormatProfileSummary(p)+"\n\n"+f.FormatCandidatesSummary(items))
}

// QueryCommand answers a free-text request.
type QueryCommand struct {
	deps *Dependencies
}

func NewQueryCommand(deps *Dependencies) *QueryCommand {
	return &QueryCommand{deps: deps}
}

func (c *QueryCommand) Name() string {
	return domain.CommandQuery.String()
}

func (c *QueryCommand) Description() string {
	return "подборка по запросу"
}

func (c *QueryCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	query, _ := params["query"].(string)
	strict, _ := params["strict"].(bool)
	if query == "" {
		return c.deps.SendError(cmdCtx.Room, "Пустой запрос.")
	}

	p, err := c.deps.loadProfile(ctx)
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}

	items, err := c.deps.Advisor.Recommend(ctx, p, recommend.Request{Query: query, Strict: strict})
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}

	c.deps.logger().Info("Query answered",
		zap.String("room", cmdCtx.Room),
		zap.String("query", query),
		zap.Bool("strict", strict),
		zap.Int("count", len(items)),
	)

	if len(items) == 0 {
		return c.deps.SendMessage(cmdCtx.Room, "По запросу «"+query+"» ничего подходящего не нашлось.")
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatCandidatesSummary(items))
}
