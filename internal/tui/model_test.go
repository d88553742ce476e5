package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/client"
	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/engagement"
	"github.com/ignatzorin/career-compass/internal/models"
)

type fakeSearcher struct {
	inputs  []discovery.Query
	flushes int
	snap    discovery.Snapshot
}

func (f *fakeSearcher) Input(q discovery.Query)      { f.inputs = append(f.inputs, q) }
func (f *fakeSearcher) Flush()                       { f.flushes++ }
func (f *fakeSearcher) Snapshot() discovery.Snapshot { return f.snap }

type fakeAPI struct {
	caps        *client.Capabilities
	snap        *engagement.Snapshot
	bookmarkErr error
	scheduleErr error
	calls       []string
}

func (f *fakeAPI) Capabilities(context.Context) (*client.Capabilities, error) {
	f.calls = append(f.calls, "capabilities")
	return f.caps, nil
}

func (f *fakeAPI) Engagement(context.Context) (*engagement.Snapshot, error) {
	f.calls = append(f.calls, "engagement")
	return f.snap, nil
}

func (f *fakeAPI) Bookmark(_ context.Context, id uuid.UUID) (*models.Bookmark, error) {
	f.calls = append(f.calls, "bookmark")
	if f.bookmarkErr != nil {
		return nil, f.bookmarkErr
	}
	return &models.Bookmark{ID: uuid.New(), OpportunityID: id}, nil
}

func (f *fakeAPI) RemoveBookmark(context.Context, uuid.UUID, uuid.UUID) error {
	f.calls = append(f.calls, "remove_bookmark")
	return nil
}

func (f *fakeAPI) Schedule(_ context.Context, id uuid.UUID) (*client.Booking, error) {
	f.calls = append(f.calls, "schedule")
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return &client.Booking{Status: "scheduled", SessionID: uuid.New(), OpportunityID: id}, nil
}

func (f *fakeAPI) CancelSession(context.Context, uuid.UUID, uuid.UUID) error {
	f.calls = append(f.calls, "cancel_session")
	return nil
}

func seekerCaps() *client.Capabilities {
	return &client.Capabilities{
		Authenticated: true,
		Role:          models.RoleSeeker,
		Actions: []string{
			string(access.ActionDiscover),
			string(access.ActionBookmark),
			string(access.ActionSchedule),
			string(access.ActionCancelSession),
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+b":
		return tea.KeyMsg{Type: tea.KeyCtrlB}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run выполняет команду и отдаёт её сообщение модели.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())
	return m
}

func newTestModel(api *fakeAPI, search *fakeSearcher, opps ...models.Opportunity) Model {
	m := New(api, search, NewFeed())
	m.copy = func(string) error { return nil }
	search.snap = discovery.Snapshot{Phase: discovery.PhaseApplied, Results: opps, Seq: 1, AppliedSeq: 1}
	m.applySearch(search.snap)
	return m
}

func opp(title string) models.Opportunity {
	at := time.Date(2026, 11, 3, 10, 0, 0, 0, time.UTC)
	return models.Opportunity{
		ID:          uuid.New(),
		Title:       title,
		Format:      models.FormatInPerson,
		Duration:    models.DurationHalfDay,
		ScheduledAt: &at,
	}
}

func TestModel_TypingFeedsSearch(t *testing.T) {
	search := &fakeSearcher{}
	m := newTestModel(&fakeAPI{}, search)

	m, _ = send(t, m, key("g"))
	m, _ = send(t, m, key("o"))
	m, _ = send(t, m, key("backspace"))

	require.Len(t, search.inputs, 3)
	assert.Equal(t, "go", search.inputs[1].Text)
	assert.Equal(t, "g", search.inputs[2].Text)
	assert.Equal(t, "g", m.query.Text)

	m, _ = send(t, m, key("enter"))
	assert.Equal(t, 1, search.flushes)
}

func TestModel_FilterCycling(t *testing.T) {
	search := &fakeSearcher{}
	m := newTestModel(&fakeAPI{}, search)

	m, _ = send(t, m, key("tab"))
	assert.Equal(t, models.FormatInPerson, m.query.Filters[discovery.FilterFormat])
	m, _ = send(t, m, key("tab"))
	m, _ = send(t, m, key("tab"))
	assert.Equal(t, models.FormatHybrid, m.query.Filters[discovery.FilterFormat])
	m, _ = send(t, m, key("tab"))
	assert.Equal(t, "", m.query.Filters[discovery.FilterFormat])

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, models.DurationHour, m.query.Filters[discovery.FilterDuration])
	assert.Len(t, search.inputs, 5)
	assert.NoError(t, search.inputs[4].Validate())
}

func TestModel_SearchChangedReadsLatestSnapshot(t *testing.T) {
	search := &fakeSearcher{}
	m := newTestModel(&fakeAPI{}, search, opp("a"), opp("b"), opp("c"))
	m, _ = send(t, m, key("down"))
	m, _ = send(t, m, key("down"))
	assert.Equal(t, 2, m.cursor)

	search.snap = discovery.Snapshot{Phase: discovery.PhaseApplied, Results: []models.Opportunity{opp("d")}, Seq: 2, AppliedSeq: 2}
	m, cmd := send(t, m, searchChangedMsg{})
	assert.NotNil(t, cmd)
	require.Len(t, m.results, 1)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "найдено: 1")
}

func TestModel_SearchFailureShown(t *testing.T) {
	search := &fakeSearcher{}
	m := newTestModel(&fakeAPI{}, search)

	search.snap = discovery.Snapshot{
		Phase: discovery.PhaseFailed,
		Err:   &client.HTTPError{StatusCode: 502, Code: "REMOTE_READ_FAILED", Message: "хранилище недоступно"},
	}
	m, _ = send(t, m, searchChangedMsg{})
	assert.Contains(t, m.View(), "поиск не выполнен: хранилище недоступно")
}

func TestModel_CapabilitiesLoadEngagement(t *testing.T) {
	o := opp("Смена в клинике")
	api := &fakeAPI{
		caps: seekerCaps(),
		snap: &engagement.Snapshot{
			Bookmarks: map[uuid.UUID]uuid.UUID{o.ID: uuid.New()},
			Sessions:  map[uuid.UUID]uuid.UUID{},
		},
	}
	m := newTestModel(api, &fakeSearcher{}, o)

	m, cmd := send(t, m, capsMsg{caps: api.caps})
	m = run(t, m, cmd)

	assert.Equal(t, []string{"engagement"}, api.calls)
	assert.Contains(t, m.bookmarks, o.ID)
	assert.Contains(t, m.View(), "★")
}

func TestModel_HostSkipsEngagement(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(api, &fakeSearcher{}, opp("x"))

	caps := &client.Capabilities{Authenticated: true, Role: models.RoleHost, Actions: []string{string(access.ActionCreateOpportunity)}}
	m, cmd := send(t, m, capsMsg{caps: caps})
	assert.Nil(t, cmd)

	m, cmd = send(t, m, key("ctrl+b"))
	assert.Nil(t, cmd)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "для роли host")
	assert.Empty(t, api.calls)
}

func TestModel_AnonymousCannotSchedule(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(api, &fakeSearcher{}, opp("x"))
	m, _ = send(t, m, capsMsg{caps: &client.Capabilities{Actions: []string{string(access.ActionDiscover)}}})

	m, cmd := send(t, m, key("ctrl+s"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "API_TOKEN")
}

func TestModel_BookmarkToggle(t *testing.T) {
	o := opp("Редакция изнутри")
	api := &fakeAPI{caps: seekerCaps()}
	m := newTestModel(api, &fakeSearcher{}, o)
	m.caps = api.caps

	m, cmd := send(t, m, key("ctrl+b"))
	require.NotNil(t, cmd)

	// Повторное нажатие до ответа игнорируется.
	m, again := send(t, m, key("ctrl+b"))
	assert.Nil(t, again)

	m = run(t, m, cmd)
	assert.Contains(t, m.bookmarks, o.ID)
	assert.Contains(t, m.status, "добавлено в закладки")

	m, cmd = send(t, m, key("ctrl+b"))
	m = run(t, m, cmd)
	assert.NotContains(t, m.bookmarks, o.ID)
	assert.Equal(t, []string{"bookmark", "remove_bookmark"}, api.calls)
}

func TestModel_ScheduleAndCancel(t *testing.T) {
	o := opp("День в бюро")
	api := &fakeAPI{caps: seekerCaps()}
	m := newTestModel(api, &fakeSearcher{}, o)
	m.caps = api.caps

	m, cmd := send(t, m, key("ctrl+s"))
	m = run(t, m, cmd)
	assert.Contains(t, m.sessions, o.ID)
	assert.Contains(t, m.View(), "●")

	m, cmd = send(t, m, key("ctrl+s"))
	m = run(t, m, cmd)
	assert.NotContains(t, m.sessions, o.ID)
	assert.Equal(t, []string{"schedule", "cancel_session"}, api.calls)
}

func TestModel_FailedActionKeepsState(t *testing.T) {
	o := opp("Лаборатория")
	api := &fakeAPI{caps: seekerCaps(), scheduleErr: &client.HTTPError{StatusCode: 502, Code: "REMOTE_WRITE_FAILED", Message: "нет связи"}}
	m := newTestModel(api, &fakeSearcher{}, o)
	m.caps = api.caps

	m, cmd := send(t, m, key("ctrl+s"))
	m = run(t, m, cmd)

	assert.NotContains(t, m.sessions, o.ID)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "не удалось записаться")
	assert.Empty(t, m.busy)
}

func TestModel_CopyID(t *testing.T) {
	o := opp("Копия")
	m := newTestModel(&fakeAPI{}, &fakeSearcher{}, o)

	var copied string
	m.copy = func(s string) error {
		copied = s
		return nil
	}
	m, cmd := send(t, m, key("ctrl+y"))
	m = run(t, m, cmd)
	assert.Equal(t, o.ID.String(), copied)
	assert.Contains(t, m.status, o.ID.String())

	m.copy = func(string) error { return errors.New("нет буфера обмена") }
	m, cmd = send(t, m, key("ctrl+y"))
	m = run(t, m, cmd)
	assert.True(t, m.statusErr)
}

func TestModel_ViewListsResults(t *testing.T) {
	draft := opp("Черновик")
	draft.ScheduledAt = nil
	m := newTestModel(&fakeAPI{}, &fakeSearcher{}, opp("Первая"), draft)
	m.height = 40

	view := m.View()
	assert.Contains(t, view, "Career Compass")
	assert.Contains(t, view, "гость")
	assert.Contains(t, view, "Первая")
	assert.Contains(t, view, "дата не назначена")
	assert.Equal(t, 1, strings.Count(view, "▸"))
}

func TestFeed_Coalesces(t *testing.T) {
	f := NewFeed()
	f.Notify(discovery.Snapshot{})
	f.Notify(discovery.Snapshot{})

	msg := f.wait()()
	assert.IsType(t, searchChangedMsg{}, msg)
	select {
	case <-f.ch:
		t.Fatal("expected a single pending signal")
	default:
	}
}

func TestEditRune(t *testing.T) {
	assert.Equal(t, "ab", editRune("a", "b"))
	assert.Equal(t, "a ", editRune("a", "space"))
	assert.Equal(t, "пр", editRune("при", "backspace"))
	assert.Equal(t, "", editRune("", "backspace"))
	assert.Equal(t, "a", editRune("a", "ctrl+x"))
	assert.Equal(t, strings.Repeat("x", maxQueryLen), editRune(strings.Repeat("x", maxQueryLen), "y"))
}
