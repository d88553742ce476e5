package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
)

func TestDashboard_Seeker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	host := newHost()
	seeker := newSeeker()

	past := env.seedOpportunity(t, host, "Past event", models.FormatVirtual, at(-24*time.Hour))
	soon := env.seedOpportunity(t, host, "Soon event", models.FormatVirtual, at(24*time.Hour))
	draft := env.seedOpportunity(t, host, "Draft event", models.FormatHybrid, nil)
	gone := env.seedOpportunity(t, host, "Removed event", models.FormatHybrid, nil)

	env.seedSession(t, seeker, past.ID)
	env.seedSession(t, seeker, draft.ID)
	env.seedSession(t, seeker, soon.ID)
	env.seedBookmark(t, seeker, soon.ID)
	env.seedBookmark(t, seeker, soon.ID)
	env.seedBookmark(t, seeker, gone.ID)
	require.NoError(t, env.store.Opportunities().DeleteOwned(ctx, gone.ID, host.ID))

	dash, err := env.dashboard.Dashboard(ctx, seeker)
	require.NoError(t, err)
	require.NotNil(t, dash.Seeker)
	assert.Nil(t, dash.Host)
	assert.True(t, dash.Capabilities.Can(access.ActionBookmark))

	assert.Equal(t, 1, dash.Seeker.BookmarkCount)
	assert.Equal(t, 2, dash.Seeker.UpcomingCount)
	assert.Equal(t, 1, dash.Seeker.PastCount)
	require.Len(t, dash.Seeker.UpcomingSessions, 2)
	assert.Equal(t, soon.ID, dash.Seeker.UpcomingSessions[0].Opportunity.ID)
	assert.Equal(t, draft.ID, dash.Seeker.UpcomingSessions[1].Opportunity.ID)
	require.Len(t, dash.Seeker.RecentBookmarks, 1)
	assert.Equal(t, soon.ID, dash.Seeker.RecentBookmarks[0].Opportunity.ID)
}

func TestDashboard_Host(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	host := newHost()
	other := newHost()

	own := env.seedOpportunity(t, host, "Own event", models.FormatVirtual, at(24*time.Hour))
	env.seedOpportunity(t, host, "Old event", models.FormatVirtual, at(-24*time.Hour))
	foreign := env.seedOpportunity(t, other, "Foreign event", models.FormatVirtual, nil)

	seeker := newSeeker()
	env.seedSession(t, seeker, own.ID)
	env.seedSession(t, seeker, foreign.ID)

	dash, err := env.dashboard.Dashboard(ctx, host)
	require.NoError(t, err)
	require.NotNil(t, dash.Host)
	assert.Nil(t, dash.Seeker)
	assert.False(t, dash.Capabilities.Can(access.ActionBookmark))

	assert.Equal(t, 2, dash.Host.PostedCount)
	assert.Equal(t, 1, dash.Host.UpcomingCount)
	assert.Equal(t, 1, dash.Host.PastCount)
	require.Len(t, dash.Host.IncomingSessions, 1)
	assert.Equal(t, own.ID, dash.Host.IncomingSessions[0].Opportunity.ID)
	assert.Equal(t, seeker.ID, dash.Host.IncomingSessions[0].Session.UserID)
}

func TestDashboard_HostWithoutOpportunities(t *testing.T) {
	env := newTestEnv(t)

	dash, err := env.dashboard.Dashboard(context.Background(), newHost())
	require.NoError(t, err)
	assert.Zero(t, dash.Host.PostedCount)
	assert.NotNil(t, dash.Host.IncomingSessions)
	assert.NotNil(t, dash.Host.RecentOpportunities)
}

func TestDashboard_SessionsTabs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	host := newHost()
	seeker := newSeeker()

	older := env.seedOpportunity(t, host, "Older", models.FormatVirtual, at(-72*time.Hour))
	recent := env.seedOpportunity(t, host, "Recent", models.FormatVirtual, at(-24*time.Hour))
	env.seedSession(t, seeker, older.ID)
	env.seedSession(t, seeker, recent.ID)

	past, err := env.dashboard.Sessions(ctx, seeker, models.TabPast)
	require.NoError(t, err)
	require.Len(t, past, 2)
	assert.Equal(t, recent.ID, past[0].Opportunity.ID)
	assert.Equal(t, older.ID, past[1].Opportunity.ID)

	upcoming, err := env.dashboard.Sessions(ctx, seeker, models.TabUpcoming)
	require.NoError(t, err)
	assert.NotNil(t, upcoming)
	assert.Empty(t, upcoming)

	_, err = env.dashboard.Sessions(ctx, seeker, "later")
	assert.True(t, apperror.IsValidation(err))
}

func TestDashboard_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.dashboard.Dashboard(ctx, access.Anonymous)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = env.dashboard.Bookmarks(ctx, access.Anonymous)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = env.dashboard.Bookmarks(ctx, newHost())
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
