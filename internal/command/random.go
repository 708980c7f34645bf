package command

import (
	"context"
	"sync"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/service/cache"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

// RandomCommand suggests one weighted-random title and remembers recent picks
// per room so repeated calls move on to other titles.
type RandomCommand struct {
	deps   *Dependencies
	mu     sync.Mutex
	recent *cache.TTLCache[string, []string]
}

func NewRandomCommand(deps *Dependencies) *RandomCommand {
	return &RandomCommand{
		deps:   deps,
		recent: cache.NewTTLCache[string, []string](constants.CacheTTL.RecentPicks, constants.CacheLimits.RecentRooms),
	}
}

func (c *RandomCommand) Name() string {
	return domain.CommandRandom.String()
}

func (c *RandomCommand) Description() string {
	return "случайный фильм, который вы еще не смотрели"
}

func (c *RandomCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	p, err := c.deps.loadProfile(ctx)
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}

	picked, err := c.deps.Advisor.PickRandom(ctx, p, c.recentFor(cmdCtx.Room))
	if err != nil {
		return c.deps.replyError(cmdCtx, c.Name(), err)
	}
	if picked != nil {
		c.remember(cmdCtx.Room, picked.Title)
	}

	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatRandomPick(picked))
}

func (c *RandomCommand) recentFor(room string) []string {
	titles, _ := c.recent.Get(room)
	return append([]string(nil), titles...)
}

// remember appends title unless an equivalent title is already stored and
// keeps the newest RecentPicks entries.
func (c *RandomCommand) remember(room, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, _ := c.recent.Get(room)
	norm := util.NormalizeTitle(title)
	titles := make([]string, 0, len(existing)+1)
	for _, item := range existing {
		if util.NormalizeTitle(item) != norm {
			titles = append(titles, item)
		}
	}
	titles = append(titles, title)
	if over := len(titles) - constants.SelectionConfig.RecentPicks; over > 0 {
		titles = titles[over:]
	}
	c.recent.Set(room, titles)
}
