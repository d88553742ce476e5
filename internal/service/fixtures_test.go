package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/engagement"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/memory"
)

type testEnv struct {
	store      *memory.Store
	cache      *CacheService
	registry   *engagement.Registry
	opps       *OpportunityService
	engagement *EngagementService
	cascade    *CascadeService
	dashboard  *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithTimeout(t, time.Second)
}

func newTestEnvWithTimeout(t *testing.T, timeout time.Duration) *testEnv {
	t.Helper()

	store := memory.NewStore()
	cache := NewCacheService()
	t.Cleanup(cache.Close)

	registry := engagement.NewRegistry(NewStateSource(store.Bookmarks(), store.Sessions(), timeout))
	opps := NewOpportunityService(store.Opportunities(), cache, time.Minute, timeout)

	return &testEnv{
		store:      store,
		cache:      cache,
		registry:   registry,
		opps:       opps,
		engagement: NewEngagementService(store.Opportunities(), store.Bookmarks(), store.Sessions(), registry, timeout),
		cascade:    NewCascadeService(store.Opportunities(), store.Bookmarks(), store.Sessions(), store.Deletions(), registry, cache, timeout),
		dashboard:  NewDashboardService(opps, store.Bookmarks(), store.Sessions(), timeout),
	}
}

func newHost() access.Viewer {
	return access.Viewer{ID: uuid.New(), Role: models.RoleHost}
}

func newSeeker() access.Viewer {
	return access.Viewer{ID: uuid.New(), Role: models.RoleSeeker}
}

// seedOpportunity создаёт возможность напрямую в хранилище.
func (e *testEnv) seedOpportunity(t *testing.T, host access.Viewer, title, format string, at *time.Time) models.Opportunity {
	t.Helper()
	opp := &models.Opportunity{
		HostID:      host.ID,
		Title:       title,
		Format:      format,
		Duration:    models.DurationHalfDay,
		ScheduledAt: at,
		Location:    "Москва",
	}
	require.NoError(t, e.store.Opportunities().Create(context.Background(), opp))
	return *opp
}

func (e *testEnv) seedBookmark(t *testing.T, viewer access.Viewer, oppID uuid.UUID) models.Bookmark {
	t.Helper()
	b := &models.Bookmark{UserID: viewer.ID, OpportunityID: oppID}
	require.NoError(t, e.store.Bookmarks().Create(context.Background(), b))
	return *b
}

func (e *testEnv) seedSession(t *testing.T, viewer access.Viewer, oppID uuid.UUID) models.ShadowSession {
	t.Helper()
	s := &models.ShadowSession{UserID: viewer.ID, OpportunityID: oppID}
	require.NoError(t, e.store.Sessions().Create(context.Background(), s))
	return *s
}

func at(d time.Duration) *time.Time {
	t := time.Now().Add(d).UTC().Truncate(time.Second)
	return &t
}
