package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/app"
	"github.com/ignatzorin/career-compass/internal/config"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/memory"
	"github.com/ignatzorin/career-compass/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	app    *app.App
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       "client-test-secret",
		AccessTokenTTL:  time.Hour,
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
		GatewayTimeout:  time.Second,
		SearchCacheTTL:  time.Minute,
	}
	a := app.New(cfg, app.MemoryRepositories(memory.NewStore()), nil)
	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return &fixture{app: a, server: srv}
}

func (f *fixture) register(t *testing.T, email, role string) (access.Viewer, string) {
	t.Helper()
	res, err := f.app.Auth.Register(context.Background(), service.RegisterInput{
		Email:    email,
		Password: "Password123",
		Role:     role,
	})
	require.NoError(t, err)
	return access.Viewer{ID: res.User.ID, Role: res.User.Role}, res.Token.Token
}

func (f *fixture) publish(t *testing.T, host access.Viewer, title, format string) *models.Opportunity {
	t.Helper()
	opp, err := f.app.Opportunities.Create(context.Background(), host, service.OpportunityInput{
		Title:    title,
		Format:   format,
		Duration: models.DurationHalfDay,
		Location: "Казань",
	})
	require.NoError(t, err)
	return opp
}

func TestClient_SearchAnonymous(t *testing.T) {
	f := newFixture(t)
	host, _ := f.register(t, "host@example.com", models.RoleHost)
	f.publish(t, host, "День в лаборатории", models.FormatInPerson)
	virtual := f.publish(t, host, "Удалённый день аналитика", models.FormatVirtual)

	c := New(f.server.URL, "")
	all, err := c.Search(context.Background(), models.OpportunityFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := c.Search(context.Background(), models.OpportunityFilter{Search: "аналит", Format: models.FormatVirtual})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, virtual.ID, filtered[0].ID)

	caps, err := c.Capabilities(context.Background())
	require.NoError(t, err)
	assert.False(t, caps.Authenticated)
	assert.True(t, caps.Can(string(access.ActionDiscover)))
	assert.False(t, caps.Can(string(access.ActionBookmark)))
}

func TestClient_EngagementFlow(t *testing.T) {
	f := newFixture(t)
	host, _ := f.register(t, "host@example.com", models.RoleHost)
	_, token := f.register(t, "seeker@example.com", models.RoleSeeker)
	opp := f.publish(t, host, "Смена в клинике", models.FormatInPerson)

	c := New(f.server.URL, token)
	ctx := context.Background()

	b, err := c.Bookmark(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, opp.ID, b.OpportunityID)

	booking, err := c.Schedule(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, opp.Title, booking.Title)

	snap, err := c.Engagement(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, snap.Bookmarks[opp.ID])
	assert.Equal(t, booking.SessionID, snap.Sessions[opp.ID])

	require.NoError(t, c.RemoveBookmark(ctx, b.ID, opp.ID))
	require.NoError(t, c.CancelSession(ctx, booking.SessionID, opp.ID))

	snap, err = c.Engagement(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Bookmarks)
	assert.Empty(t, snap.Sessions)
}

func TestClient_ErrorsCarryCode(t *testing.T) {
	f := newFixture(t)

	c := New(f.server.URL, "")
	_, err := c.Bookmark(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	_, token := f.register(t, "seeker@example.com", models.RoleSeeker)
	c = New(f.server.URL, token)
	_, err = c.Bookmark(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "NOT_FOUND", CodeOf(err))
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Search(context.Background(), models.OpportunityFilter{})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Contains(t, err.Error(), "upstream down")
	assert.Empty(t, CodeOf(err))
}

func TestClient_SearchSendsFilters(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"opportunities": []models.Opportunity{}, "total": 0})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Search(context.Background(), models.OpportunityFilter{
		Search:     "дизайн",
		Duration:   models.DurationFullDay,
		Department: "Дизайн",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"q":          "дизайн",
		"duration":   models.DurationFullDay,
		"department": "Дизайн",
	}, got)
}
