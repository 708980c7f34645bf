package adapter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kapu/movie-advisor-bot/internal/constants"
	"github.com/kapu/movie-advisor-bot/internal/domain"
	"github.com/kapu/movie-advisor-bot/internal/util"
)

const (
	valueUnknown          = "—"
	ratingsUnknown        = "нет данных"
	randomReasonDefault   = "Похоже по жанру и оценкам на ваши высоко оцененные фильмы."
	candidatesUnavailable = "TMDB candidates are unavailable."
)

// ProviderStatus is one line of the diagnostics report.
type ProviderStatus struct {
	Name   string
	OK     bool
	Detail string
}

// ResponseFormatter renders advisor results as plain text.
type ResponseFormatter struct {
	prefix       string
	summaryItems int
	summaryChars int
}

// NewResponseFormatter creates a new ResponseFormatter
func NewResponseFormatter(prefix string) *ResponseFormatter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "/"
	}
	return &ResponseFormatter{
		prefix:       prefix,
		summaryItems: constants.StringLimits.CandidatesMaxItems,
		summaryChars: constants.StringLimits.CandidatesSummary,
	}
}

// WithSummaryLimits overrides the candidates summary budget. Non-positive
// values keep the defaults.
func (f *ResponseFormatter) WithSummaryLimits(maxItems, maxChars int) *ResponseFormatter {
	if maxItems > 0 {
		f.summaryItems = maxItems
	}
	if maxChars > 0 {
		f.summaryChars = maxChars
	}
	return f
}

// FormatProfileSummary renders profile stats, top genres, top favorites and a
// bounded preview of watched titles.
func (f *ResponseFormatter) FormatProfileSummary(p *domain.TasteProfile) string {
	if p == nil {
		p = &domain.TasteProfile{}
	}

	lines := []string{
		fmt.Sprintf("Записей в таблице: %d", p.TotalEntries),
		fmt.Sprintf("С оценками: %d", p.RatedEntries),
	}
	if p.RatedEntries > 0 {
		lines = append(lines, fmt.Sprintf("Средняя оценка: %.2f/10", p.AverageRating))
	} else {
		lines = append(lines, "Средняя оценка: нет данных")
	}

	if len(p.TopGenres) > 0 {
		genres := make([]string, 0, constants.StringLimits.ProfileGenres)
		for i, genre := range p.TopGenres {
			if i >= constants.StringLimits.ProfileGenres {
				break
			}
			genres = append(genres, fmt.Sprintf("%s (%.1f)", genre.Genre, genre.Score))
		}
		lines = append(lines, "Любимые жанры: "+strings.Join(genres, ", "))
	}

	favorites := make([]string, 0, constants.StringLimits.ProfileFavorites)
	for i, favorite := range p.Favorites {
		if i >= constants.StringLimits.ProfileFavorites {
			break
		}
		if favorite.Rating > 0 {
			favorites = append(favorites, fmt.Sprintf("%s (%g)", favorite.Title, favorite.Rating))
		}
	}
	if len(favorites) > 0 {
		lines = append(lines, "Топ по оценке: "+strings.Join(favorites, ", "))
	}

	lines = append(lines, "Уже просмотрено: "+joinLimited(p.WatchedTitles, constants.StringLimits.WatchedPreview))
	return strings.Join(lines, "\n")
}

// FormatCandidatesSummary renders the candidates within the formatter's
// configured item and character budget.
func (f *ResponseFormatter) FormatCandidatesSummary(items []domain.CandidateMovie) string {
	return f.FormatCandidatesSummaryWithin(items, f.summaryItems, f.summaryChars)
}

// FormatCandidatesSummaryWithin renders one bullet line per candidate, stopping
// at maxItems lines or before the total would exceed maxChars runes.
// Non-positive limits fall back to the defaults.
func (f *ResponseFormatter) FormatCandidatesSummaryWithin(items []domain.CandidateMovie, maxItems, maxChars int) string {
	if maxItems <= 0 {
		maxItems = constants.StringLimits.CandidatesMaxItems
	}
	if maxChars <= 0 {
		maxChars = constants.StringLimits.CandidatesSummary
	}
	if len(items) == 0 {
		return candidatesUnavailable
	}

	lines := make([]string, 0, len(items))
	current := 0
	for i, item := range items {
		if i >= maxItems {
			break
		}

		genres := "-"
		if len(item.Genres) > 0 {
			genres = strings.Join(headGenres(item.Genres), ", ")
		}
		ratings := []string{fmt.Sprintf("%s %.1f/10", primaryLabel(item), item.PrimaryRating)}
		if item.HasSecondaryRating() {
			ratings = append(ratings, fmt.Sprintf("IMDb %.1f/10", item.SecondaryRating))
		}

		line := fmt.Sprintf("- %s (%s), %s, votes=%d, genres=%s, reason=%s",
			item.Title, yearOrUnknown(item.Year, "-"), strings.Join(ratings, " | "), item.VoteCount, genres, item.Reason)
		if plot := strings.TrimSpace(item.Plot); plot != "" {
			line += ", plot=" + util.TrimRunes(plot, constants.StringLimits.SummaryPlot)
		}

		length := utf8.RuneCountInString(line) + 1
		if current+length > maxChars {
			break
		}
		lines = append(lines, line)
		current += length
	}
	return strings.Join(lines, "\n")
}

type randomPickView struct {
	Title   string
	Year    string
	Genres  string
	Ratings string
	Reason  string
	Plot    string
}

// FormatRandomPick renders the caption for a single random suggestion.
func (f *ResponseFormatter) FormatRandomPick(picked *domain.CandidateMovie) string {
	if picked == nil {
		return "Сейчас не получилось подобрать новый фильм вне вашей таблицы.\nПроверьте доступ к провайдерам и попробуйте снова."
	}

	view := randomPickView{
		Title:   picked.Title,
		Year:    yearOrUnknown(picked.Year, ""),
		Ratings: ratingsUnknown,
		Reason:  picked.Reason,
	}
	if len(picked.Genres) > 0 {
		view.Genres = strings.Join(headGenres(picked.Genres), ", ")
	}

	ratings := make([]string, 0, 2)
	if picked.PrimaryRating > 0 {
		ratings = append(ratings, fmt.Sprintf("%s %.1f/10", primaryLabel(*picked), picked.PrimaryRating))
	}
	if picked.HasSecondaryRating() {
		ratings = append(ratings, fmt.Sprintf("IMDb %.1f/10", picked.SecondaryRating))
	}
	if len(ratings) > 0 {
		view.Ratings = strings.Join(ratings, " | ")
	}
	if strings.TrimSpace(view.Reason) == "" {
		view.Reason = randomReasonDefault
	}
	if plot := strings.TrimSpace(picked.Plot); plot != "" {
		view.Plot = plot
		if utf8.RuneCountInString(plot) > constants.StringLimits.CaptionPlot {
			view.Plot = util.TrimRunes(plot, constants.StringLimits.CaptionPlot) + "..."
		}
	}

	text, err := executeFormatterTemplate("random_pick", view)
	if err != nil {
		return fmt.Sprintf("🎲 %s (%s)", view.Title, yearOrUnknown(picked.Year, valueUnknown))
	}
	return text
}

type detailsCardView struct {
	Title   string
	Year    string
	Type    string
	Genre   string
	Ratings []string
	Plot    string
	Poster  string
}

// FormatDetailsCard renders a merged details record.
func (f *ResponseFormatter) FormatDetailsCard(details *domain.MovieDetails) string {
	if details.IsEmpty() {
		return f.FormatError("Фильм не найден ни у одного провайдера.")
	}

	view := detailsCardView{
		Title:  available(details.Title),
		Year:   available(details.Year),
		Type:   available(details.Type),
		Genre:  available(details.Genre),
		Plot:   util.TruncateString(available(details.Plot), constants.StringLimits.DetailsCardPlot),
		Poster: available(details.Poster),
	}
	if rating := available(details.TMDBRating); rating != "" {
		view.Ratings = append(view.Ratings, "TMDB "+rating+"/10")
	}
	if rating := available(details.Rating); rating != "" {
		view.Ratings = append(view.Ratings, "IMDb "+rating+"/10")
	}

	text, err := executeFormatterTemplate("details_card", view)
	if err != nil {
		return fmt.Sprintf("🎬 %s", details.Title)
	}
	return text
}

// FormatDiagnostics renders provider probes followed by recent failures.
func (f *ResponseFormatter) FormatDiagnostics(statuses []ProviderStatus, events []domain.ErrorEvent) string {
	var sb strings.Builder
	sb.WriteString("🩺 Диагностика\n")
	for _, status := range statuses {
		mark := "❌"
		if status.OK {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", mark, status.Name, status.Detail))
	}

	if len(events) == 0 {
		sb.WriteString("\nОшибок не зафиксировано.")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("\nПоследние ошибки (%d):\n", len(events)))
	for _, event := range events {
		sb.WriteString(fmt.Sprintf("- %s [%s] %s: %s\n",
			event.Timestamp.Format("2006-01-02 15:04:05"), event.Source, event.ErrorType, event.Message))
	}
	return strings.TrimSpace(sb.String())
}

// FormatHelp formats help message
func (f *ResponseFormatter) FormatHelp() string {
	text, err := executeFormatterTemplate("help", struct{ Prefix string }{Prefix: f.prefix})
	if err != nil {
		return f.FormatError("справка недоступна")
	}
	return text
}

// FormatError formats error message
func (f *ResponseFormatter) FormatError(message string) string {
	return fmt.Sprintf("❌ %s", message)
}

// Helper methods

func primaryLabel(item domain.CandidateMovie) string {
	if item.Source == domain.SourceKinopoisk {
		return "KP"
	}
	return "TMDB"
}

func headGenres(genres []string) []string {
	if len(genres) > constants.StringLimits.SummaryGenres {
		return genres[:constants.StringLimits.SummaryGenres]
	}
	return genres
}

func yearOrUnknown(year int, unknown string) string {
	if year <= 0 {
		return unknown
	}
	return fmt.Sprintf("%d", year)
}

func available(value string) string {
	if util.IsNotAvailable(value) {
		return ""
	}
	return strings.TrimSpace(value)
}

// joinLimited joins items with ", " while the running length (item plus one
// separator rune) fits maxChars.
func joinLimited(items []string, maxChars int) string {
	result := make([]string, 0, len(items))
	current := 0
	for _, item := range items {
		length := utf8.RuneCountInString(item) + 1
		if current+length > maxChars {
			break
		}
		result = append(result, item)
		current += length
	}
	return strings.Join(result, ", ")
}
