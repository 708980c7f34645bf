package adapter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	titleYearPattern    = regexp.MustCompile(`^(.*?)\s*\(\s*(\d{4})\s*\)\s*$`)
)

// MessageAdapter converts chat text into advisor commands.
type MessageAdapter struct {
	prefix string
}

// NewMessageAdapter creates a new MessageAdapter
func NewMessageAdapter(prefix string) *MessageAdapter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "/"
	}
	return &MessageAdapter{prefix: prefix}
}

// ParsedCommand represents a parsed command
type ParsedCommand struct {
	Type       domain.CommandType
	Params     map[string]any
	RawMessage string
}

// ParseMessage parses a chat message. Text without the prefix is treated as a
// lenient free-text request.
func (ma *MessageAdapter) ParseMessage(message string) *ParsedCommand {
	text := strings.TrimSpace(message)
	if text == "" {
		return ma.createUnknownCommand("")
	}

	if !strings.HasPrefix(text, ma.prefix) {
		query := ma.sanitizeQuery(text)
		if query == "" {
			return ma.createUnknownCommand(text)
		}
		return &ParsedCommand{
			Type:       domain.CommandQuery,
			Params:     map[string]any{"query": query, "strict": false},
			RawMessage: text,
		}
	}

	commandText := strings.TrimSpace(text[len(ma.prefix):])
	parts := strings.Fields(commandText)
	if len(parts) == 0 {
		return ma.createUnknownCommand(text)
	}

	command := util.Lower(parts[0])
	args := parts[1:]
	rest := strings.Join(args, " ")

	switch {
	case ma.isRecommendCommand(command):
		if query := ma.sanitizeQuery(rest); query != "" {
			return &ParsedCommand{
				Type:       domain.CommandQuery,
				Params:     map[string]any{"query": query, "strict": false},
				RawMessage: text,
			}
		}
		return ma.simpleCommand(domain.CommandRecommend, text)

	case ma.isQueryCommand(command):
		query := ma.sanitizeQuery(rest)
		if query == "" {
			return ma.simpleCommand(domain.CommandRecommend, text)
		}
		return &ParsedCommand{
			Type:       domain.CommandQuery,
			Params:     map[string]any{"query": query, "strict": true},
			RawMessage: text,
		}

	case ma.isRandomCommand(command):
		return ma.simpleCommand(domain.CommandRandom, text)

	case ma.isDetailsCommand(command):
		title, year := ParseTitleYear(rest)
		if title == "" {
			return ma.createUnknownCommand(text)
		}
		return &ParsedCommand{
			Type:       domain.CommandDetails,
			Params:     map[string]any{"title": title, "year": year},
			RawMessage: text,
		}

	case ma.isStatsCommand(command):
		return ma.simpleCommand(domain.CommandStats, text)

	case ma.isDiagCommand(command):
		return &ParsedCommand{
			Type:       domain.CommandDiag,
			Params:     map[string]any{"limit": ma.parseLimit(args)},
			RawMessage: text,
		}

	case ma.isHelpCommand(command):
		return ma.simpleCommand(domain.CommandHelp, text)
	}

	return ma.createUnknownCommand(text)
}

// Command matchers

func (ma *MessageAdapter) isRecommendCommand(cmd string) bool {
	return contains([]string{"recommend", "рекомендация", "посоветуй"}, cmd)
}

func (ma *MessageAdapter) isQueryCommand(cmd string) bool {
	return contains([]string{"ai", "query", "найди"}, cmd)
}

func (ma *MessageAdapter) isRandomCommand(cmd string) bool {
	return contains([]string{"random", "случайный", "рандом"}, cmd)
}

func (ma *MessageAdapter) isDetailsCommand(cmd string) bool {
	return contains([]string{"details", "info", "инфо"}, cmd)
}

func (ma *MessageAdapter) isStatsCommand(cmd string) bool {
	return contains([]string{"stats", "profile", "статистика", "профиль"}, cmd)
}

func (ma *MessageAdapter) isDiagCommand(cmd string) bool {
	return contains([]string{"diag", "status", "диагностика"}, cmd)
}

func (ma *MessageAdapter) isHelpCommand(cmd string) bool {
	return contains([]string{"help", "start", "помощь"}, cmd)
}

// Argument parsers

// ParseTitleYear splits "Title;Year" or "Title (Year)" into its parts. The year
// is 0 when absent or implausible.
func ParseTitleYear(input string) (string, int) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", 0
	}
	if title, year, ok := strings.Cut(text, ";"); ok {
		return strings.TrimSpace(title), util.ParseYear(strings.TrimSpace(year))
	}
	if match := titleYearPattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1]), util.ParseYear(match[2])
	}
	return text, 0
}

func (ma *MessageAdapter) parseLimit(args []string) int {
	limit := constants.StringLimits.DiagErrors
	if len(args) == 0 {
		return limit
	}
	value, err := strconv.Atoi(args[0])
	if err != nil {
		return limit
	}
	return int(util.Clamp(float64(value), 1, float64(constants.StringLimits.RecentErrors)))
}

func (ma *MessageAdapter) simpleCommand(commandType domain.CommandType, text string) *ParsedCommand {
	return &ParsedCommand{
		Type:       commandType,
		Params:     make(map[string]any),
		RawMessage: text,
	}
}

func (ma *MessageAdapter) createUnknownCommand(text string) *ParsedCommand {
	return ma.simpleCommand(domain.CommandUnknown, text)
}

func (ma *MessageAdapter) sanitizeQuery(input string) string {
	withoutControl := controlCharsPattern.ReplaceAllString(input, " ")
	normalized := strings.TrimSpace(whitespacePattern.ReplaceAllString(withoutControl, " "))
	if normalized == "" {
		return ""
	}
	return util.TrimRunes(normalized, constants.StringLimits.MaxQueryLength)
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
