// Package tui терминальный интерфейс поиска возможностей и управления записью.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/client"
	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/engagement"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/models"
)

// API операции сервера, которые нужны интерфейсу. Реализуется client.Client.
type API interface {
	Capabilities(ctx context.Context) (*client.Capabilities, error)
	Engagement(ctx context.Context) (*engagement.Snapshot, error)
	Bookmark(ctx context.Context, opportunityID uuid.UUID) (*models.Bookmark, error)
	RemoveBookmark(ctx context.Context, bookmarkID, opportunityID uuid.UUID) error
	Schedule(ctx context.Context, opportunityID uuid.UUID) (*client.Booking, error)
	CancelSession(ctx context.Context, sessionID, opportunityID uuid.UUID) error
}

// Searcher движок поиска. Реализуется discovery.Engine.
type Searcher interface {
	Input(q discovery.Query)
	Flush()
	Snapshot() discovery.Snapshot
}

const requestTimeout = 10 * time.Second

var (
	formatCycle   = []string{models.FormatInPerson, models.FormatVirtual, models.FormatHybrid}
	durationCycle = []string{models.DurationHour, models.DurationHalfDay, models.DurationFullDay, models.DurationMultiDay}
)

type capsMsg struct {
	caps *client.Capabilities
	err  error
}

type engagementMsg struct {
	snap *engagement.Snapshot
	err  error
}

type actionKind int

const (
	actionBookmarked actionKind = iota
	actionUnbookmarked
	actionScheduled
	actionCancelled
	actionCopied
)

type actionMsg struct {
	kind  actionKind
	oppID uuid.UUID
	rowID uuid.UUID
	title string
	err   error
}

// Model корневая модель bubbletea.
type Model struct {
	api    API
	search Searcher
	feed   *Feed
	copy   func(string) error

	query   discovery.Query
	results []models.Opportunity
	phase   discovery.Phase
	err     error
	cursor  int

	caps      *client.Capabilities
	bookmarks map[uuid.UUID]uuid.UUID
	sessions  map[uuid.UUID]uuid.UUID
	// busy опции, по которым выполняется действие; повторное нажатие игнорируется.
	busy map[uuid.UUID]bool

	status    string
	statusErr bool
	width     int
	height    int
}

// New создаёт модель. feed должен быть подписан на изменения search.
func New(api API, search Searcher, feed *Feed) Model {
	return Model{
		api:       api,
		search:    search,
		feed:      feed,
		copy:      clipboard.WriteAll,
		query:     discovery.Query{Filters: map[string]string{}},
		bookmarks: map[uuid.UUID]uuid.UUID{},
		sessions:  map[uuid.UUID]uuid.UUID{},
		busy:      map[uuid.UUID]bool{},
	}
}

func (m Model) Init() tea.Cmd {
	search := m.search
	q := m.query
	return tea.Batch(
		m.feed.wait(),
		m.loadCapabilities(),
		func() tea.Msg {
			search.Input(q)
			search.Flush()
			return nil
		},
	)
}

func (m Model) loadCapabilities() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		caps, err := api.Capabilities(ctx)
		return capsMsg{caps: caps, err: err}
	}
}

func (m Model) loadEngagement() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := api.Engagement(ctx)
		return engagementMsg{snap: snap, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case searchChangedMsg:
		m.applySearch(m.search.Snapshot())
		return m, m.feed.wait()

	case capsMsg:
		if msg.err != nil {
			m.setError("права не загружены", msg.err)
			return m, nil
		}
		m.caps = msg.caps
		// Закладки и записи есть только у соискателя.
		if !msg.caps.Can(string(access.ActionBookmark)) {
			return m, nil
		}
		return m, m.loadEngagement()

	case engagementMsg:
		if msg.err != nil {
			if !client.IsStatus(msg.err, 401) && !client.IsStatus(msg.err, 403) {
				m.setError("закладки и записи не загружены", msg.err)
			}
			return m, nil
		}
		m.bookmarks = copyMap(msg.snap.Bookmarks)
		m.sessions = copyMap(msg.snap.Sessions)
		return m, nil

	case actionMsg:
		m.applyAction(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applySearch(snap discovery.Snapshot) {
	m.phase = snap.Phase
	m.err = snap.Err
	m.results = snap.Results
	if m.cursor >= len(m.results) {
		m.cursor = max(len(m.results)-1, 0)
	}
}

func (m *Model) applyAction(msg actionMsg) {
	delete(m.busy, msg.oppID)
	if msg.err != nil {
		m.setError(actionFailure(msg.kind), msg.err)
		return
	}
	m.statusErr = false
	switch msg.kind {
	case actionBookmarked:
		m.bookmarks[msg.oppID] = msg.rowID
		m.status = "добавлено в закладки: " + msg.title
	case actionUnbookmarked:
		delete(m.bookmarks, msg.oppID)
		m.status = "удалено из закладок: " + msg.title
	case actionScheduled:
		m.sessions[msg.oppID] = msg.rowID
		m.status = "вы записаны: " + msg.title
	case actionCancelled:
		delete(m.sessions, msg.oppID)
		m.status = "запись отменена: " + msg.title
	case actionCopied:
		m.status = "идентификатор скопирован: " + msg.oppID.String()
	}
}

func actionFailure(kind actionKind) string {
	switch kind {
	case actionBookmarked:
		return "не удалось добавить закладку"
	case actionUnbookmarked:
		return "не удалось удалить закладку"
	case actionScheduled:
		return "не удалось записаться"
	case actionCancelled:
		return "не удалось отменить запись"
	default:
		return "не удалось скопировать"
	}
}

func (m *Model) setError(prefix string, err error) {
	m.status = prefix + ": " + err.Error()
	m.statusErr = true
	logger.Component("tui").WithError(err).Warn(prefix)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		m.search.Flush()
		return m, nil
	case "tab":
		m.setFilter(discovery.FilterFormat, cycle(formatCycle, m.query.Filters[discovery.FilterFormat]))
		return m, nil
	case "shift+tab":
		m.setFilter(discovery.FilterDuration, cycle(durationCycle, m.query.Filters[discovery.FilterDuration]))
		return m, nil
	case "ctrl+b":
		return m.toggleBookmark()
	case "ctrl+s":
		return m.toggleSession()
	case "ctrl+y":
		return m.copySelected()
	case "ctrl+r":
		return m, m.loadEngagement()
	}

	text := editRune(m.query.Text, msg.String())
	if text != m.query.Text {
		m.query = discovery.Query{Text: text, Filters: m.query.Filters}
		m.search.Input(m.query)
	}
	return m, nil
}

func (m *Model) setFilter(name, value string) {
	m.query = m.query.WithFilter(name, value)
	m.search.Input(m.query)
}

func (m Model) selected() (models.Opportunity, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return models.Opportunity{}, false
	}
	return m.results[m.cursor], true
}

// allowed проверяет действие по загруженным правам. Без прав всё запрещено.
func (m *Model) allowed(action access.Action) bool {
	if m.caps != nil && m.caps.Can(string(action)) {
		return true
	}
	m.status = "действие недоступно"
	if m.caps == nil || !m.caps.Authenticated {
		m.status += ": войдите, указав API_TOKEN"
	} else {
		m.status += " для роли " + m.caps.Role
	}
	m.statusErr = true
	return false
}

func (m Model) toggleBookmark() (tea.Model, tea.Cmd) {
	opp, ok := m.selected()
	if !ok || m.busy[opp.ID] || !m.allowed(access.ActionBookmark) {
		return m, nil
	}
	m.busy[opp.ID] = true
	api := m.api

	if bookmarkID, marked := m.bookmarks[opp.ID]; marked {
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			err := api.RemoveBookmark(ctx, bookmarkID, opp.ID)
			return actionMsg{kind: actionUnbookmarked, oppID: opp.ID, title: opp.Title, err: err}
		}
	}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		b, err := api.Bookmark(ctx, opp.ID)
		out := actionMsg{kind: actionBookmarked, oppID: opp.ID, title: opp.Title, err: err}
		if err == nil {
			out.rowID = b.ID
		}
		return out
	}
}

func (m Model) toggleSession() (tea.Model, tea.Cmd) {
	opp, ok := m.selected()
	if !ok || m.busy[opp.ID] {
		return m, nil
	}
	sessionID, scheduled := m.sessions[opp.ID]
	action := access.ActionSchedule
	if scheduled {
		action = access.ActionCancelSession
	}
	if !m.allowed(action) {
		return m, nil
	}
	m.busy[opp.ID] = true
	api := m.api

	if scheduled {
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			err := api.CancelSession(ctx, sessionID, opp.ID)
			return actionMsg{kind: actionCancelled, oppID: opp.ID, title: opp.Title, err: err}
		}
	}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		booking, err := api.Schedule(ctx, opp.ID)
		out := actionMsg{kind: actionScheduled, oppID: opp.ID, title: opp.Title, err: err}
		if err == nil {
			out.rowID = booking.SessionID
		}
		return out
	}
}

func (m Model) copySelected() (tea.Model, tea.Cmd) {
	opp, ok := m.selected()
	if !ok {
		return m, nil
	}
	copyFn := m.copy
	return m, func() tea.Msg {
		return actionMsg{kind: actionCopied, oppID: opp.ID, err: copyFn(opp.ID.String())}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Career Compass"))
	if m.caps != nil && m.caps.Authenticated {
		b.WriteString(dimStyle.Render("  " + m.caps.Role))
	} else {
		b.WriteString(dimStyle.Render("  гость"))
	}
	b.WriteString("\n\n")

	b.WriteString(queryStyle.Render("> "+m.query.Text) + dimStyle.Render("_"))
	b.WriteString("  " + m.renderFilters())
	b.WriteString("  " + metaStyle.Render(m.renderPhase()))
	b.WriteString("\n\n")

	b.WriteString(m.renderResults())

	if opp, ok := m.selected(); ok {
		b.WriteString("\n" + detailStyle.Render(renderDetail(opp)) + "\n")
	}

	if m.status != "" {
		style := dimStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	b.WriteString("\n" + renderHelp())
	return b.String()
}

func (m Model) renderFilters() string {
	format := m.query.Filters[discovery.FilterFormat]
	if format == "" {
		format = "любой формат"
	}
	duration := m.query.Filters[discovery.FilterDuration]
	if duration == "" {
		duration = "любая длительность"
	}
	return filterStyle.Render("[" + format + "] [" + duration + "]")
}

func (m Model) renderPhase() string {
	switch m.phase {
	case discovery.PhasePending:
		return "ввод..."
	case discovery.PhaseDispatched:
		return "поиск..."
	case discovery.PhaseFailed:
		return "ошибка поиска"
	case discovery.PhaseApplied:
		return fmt.Sprintf("найдено: %d", len(m.results))
	default:
		return ""
	}
}

func (m Model) renderResults() string {
	if m.phase == discovery.PhaseFailed && m.err != nil {
		msg := m.err.Error()
		var httpErr *client.HTTPError
		if errors.As(m.err, &httpErr) {
			msg = httpErr.Message
		}
		return errorStyle.Render("поиск не выполнен: "+msg) + "\n"
	}
	if len(m.results) == 0 {
		if m.phase == discovery.PhaseApplied {
			return dimStyle.Render("ничего не найдено") + "\n"
		}
		return ""
	}

	limit := len(m.results)
	if m.height > 0 {
		// шапка, детали и подсказки занимают около 14 строк
		limit = min(limit, max(m.height-14, 3))
	}
	start := 0
	if m.cursor >= limit {
		start = m.cursor - limit + 1
	}

	var b strings.Builder
	for i := start; i < start+limit && i < len(m.results); i++ {
		opp := m.results[i]
		marks := "  "
		if _, ok := m.bookmarks[opp.ID]; ok {
			marks = bookmarkStyle.Render("★") + " "
		}
		if _, ok := m.sessions[opp.ID]; ok {
			marks += sessionStyle.Render("●")
		} else {
			marks += " "
		}

		line := fmt.Sprintf("%s  %s", opp.Title, metaStyle.Render(opp.Format+" · "+opp.Duration+" · "+renderDate(opp)))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▸ ") + marks + " " + selectedStyle.Render(line))
		} else {
			b.WriteString("  " + marks + " " + normalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderDate(opp models.Opportunity) string {
	if opp.ScheduledAt == nil {
		return "дата не назначена"
	}
	return opp.ScheduledAt.Local().Format("02.01.2006 15:04")
}

func renderDetail(opp models.Opportunity) string {
	lines := []string{selectedStyle.Render(opp.Title)}
	if opp.Location != "" || opp.Department != "" {
		lines = append(lines, dimStyle.Render(strings.Trim(opp.Location+" · "+opp.Department, " ·")))
	}
	if opp.Description != "" {
		lines = append(lines, normalStyle.Render(opp.Description))
	}
	if opp.Requirements != "" {
		lines = append(lines, metaStyle.Render("Требования: "+opp.Requirements))
	}
	return strings.Join(lines, "\n")
}

func renderHelp() string {
	keys := []struct{ key, label string }{
		{"↑↓", "выбор"},
		{"tab", "формат"},
		{"shift+tab", "длительность"},
		{"ctrl+b", "закладка"},
		{"ctrl+s", "запись"},
		{"ctrl+y", "копировать id"},
		{"esc", "выход"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = helpKeyStyle.Render(k.key) + " " + helpLabelStyle.Render(k.label)
	}
	return strings.Join(parts, "  ")
}

func copyMap(in map[uuid.UUID]uuid.UUID) map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
