package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/repository/memory"
)

func TestEngagement_BookmarkTwiceRejectedWithoutWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, at(24*time.Hour))
	seeker := newSeeker()

	b, err := env.engagement.Bookmark(ctx, seeker, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, opp.ID, b.OpportunityID)

	_, err = env.engagement.Bookmark(ctx, seeker, opp.ID)
	assert.ErrorIs(t, err, apperror.ErrAlreadyBookmarked)
	assert.Equal(t, 1, env.store.Calls(memory.OpBookmarkCreate))

	snap, err := env.engagement.Snapshot(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, b.ID, snap.Bookmarks[opp.ID])
	assert.True(t, snap.Complete)
}

func TestEngagement_ConcurrentBookmarksCreateOneRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)
	seeker := newSeeker()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engagement.Bookmark(ctx, seeker, opp.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperror.IsAlreadyExists(err):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, rejected)
	_, bookmarks, _ := env.store.Counts()
	assert.Equal(t, 1, bookmarks)
}

func TestEngagement_BookmarkUnknownOpportunity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engagement.Bookmark(context.Background(), newSeeker(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrOpportunityNotFound)
	assert.Zero(t, env.store.Calls(memory.OpBookmarkCreate))
}

func TestEngagement_RemoteFailureLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)
	seeker := newSeeker()

	env.store.FailOn(memory.OpBookmarkCreate, errors.New("connection reset"))
	_, err := env.engagement.Bookmark(ctx, seeker, opp.ID)
	assert.Equal(t, apperror.ErrCodeRemoteWriteFailed, apperror.CodeOf(err))

	st, err := env.engagement.State(ctx, seeker)
	require.NoError(t, err)
	assert.False(t, st.IsBookmarked(opp.ID))

	env.store.Recover()
	_, err = env.engagement.Bookmark(ctx, seeker, opp.ID)
	require.NoError(t, err)
	assert.True(t, st.IsBookmarked(opp.ID))
}

func TestEngagement_RemoveBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)
	seeker := newSeeker()

	b, err := env.engagement.Bookmark(ctx, seeker, opp.ID)
	require.NoError(t, err)

	env.store.FailOn(memory.OpBookmarkDelete, errors.New("connection reset"))
	err = env.engagement.RemoveBookmark(ctx, seeker, b.ID, uuid.Nil)
	assert.Equal(t, apperror.ErrCodeRemoteWriteFailed, apperror.CodeOf(err))

	st, err := env.engagement.State(ctx, seeker)
	require.NoError(t, err)
	assert.True(t, st.IsBookmarked(opp.ID))

	env.store.Recover()
	require.NoError(t, env.engagement.RemoveBookmark(ctx, seeker, b.ID, uuid.Nil))
	assert.False(t, st.IsBookmarked(opp.ID))

	// повторное удаление не ошибка
	require.NoError(t, env.engagement.RemoveBookmark(ctx, seeker, b.ID, opp.ID))
}

func TestEngagement_ScheduleAndCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Product Manager", models.FormatHybrid, at(48*time.Hour))
	seeker := newSeeker()

	conf, err := env.engagement.ScheduleSessionByID(ctx, seeker, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, conf.Status)
	assert.Equal(t, opp.Title, conf.Title)
	assert.Equal(t, opp.ScheduledAt, conf.ScheduledAt)

	_, err = env.engagement.ScheduleSession(ctx, seeker, &opp)
	assert.ErrorIs(t, err, apperror.ErrAlreadyScheduled)
	assert.Equal(t, 1, env.store.Calls(memory.OpSessionCreate))

	require.NoError(t, env.engagement.CancelSession(ctx, seeker, conf.SessionID, uuid.Nil))
	st, err := env.engagement.State(ctx, seeker)
	require.NoError(t, err)
	assert.False(t, st.IsScheduled(opp.ID))

	_, err = env.engagement.ScheduleSession(ctx, seeker, &opp)
	require.NoError(t, err)
}

func TestEngagement_ScheduleMissingOpportunity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engagement.ScheduleSession(ctx, newSeeker(), nil)
	assert.ErrorIs(t, err, apperror.ErrOpportunityNotFound)

	_, err = env.engagement.ScheduleSessionByID(ctx, newSeeker(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrOpportunityNotFound)
	assert.Zero(t, env.store.Calls(memory.OpSessionCreate))
}

func TestEngagement_CancelFailureKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Product Manager", models.FormatHybrid, nil)
	seeker := newSeeker()

	conf, err := env.engagement.ScheduleSession(ctx, seeker, &opp)
	require.NoError(t, err)

	env.store.FailOn(memory.OpSessionDelete, errors.New("connection reset"))
	err = env.engagement.CancelSession(ctx, seeker, conf.SessionID, opp.ID)
	assert.Equal(t, apperror.ErrCodeRemoteWriteFailed, apperror.CodeOf(err))

	st, err := env.engagement.State(ctx, seeker)
	require.NoError(t, err)
	assert.True(t, st.IsScheduled(opp.ID))
}

func TestEngagement_RoleChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)

	_, err := env.engagement.Bookmark(ctx, access.Anonymous, opp.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = env.engagement.ScheduleSession(ctx, access.Anonymous, &opp)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = env.engagement.Bookmark(ctx, newHost(), opp.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.engagement.ScheduleSession(ctx, newHost(), &opp)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	assert.Zero(t, env.store.Calls(memory.OpBookmarkCreate))
	assert.Zero(t, env.store.Calls(memory.OpSessionCreate))
}

func TestEngagement_WriteTimeout(t *testing.T) {
	env := newTestEnvWithTimeout(t, 20*time.Millisecond)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)
	seeker := newSeeker()

	env.store.SetHook(func(ctx context.Context, op string) error {
		if op != memory.OpSessionCreate {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	})

	_, err := env.engagement.ScheduleSession(ctx, seeker, &opp)
	assert.Equal(t, apperror.ErrCodeTimeout, apperror.CodeOf(err))

	st, err := env.engagement.State(ctx, seeker)
	require.NoError(t, err)
	assert.False(t, st.IsScheduled(opp.ID))
}

func TestEngagement_LoadFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)
	seeker := newSeeker()
	sess := env.seedSession(t, seeker, opp.ID)

	env.store.FailOn(memory.OpBookmarkList, errors.New("connection reset"))

	_, err := env.engagement.Bookmark(ctx, seeker, opp.ID)
	assert.Equal(t, apperror.ErrCodeRemoteReadFailed, apperror.CodeOf(err))
	assert.Zero(t, env.store.Calls(memory.OpBookmarkCreate))

	snap, err := env.engagement.Snapshot(ctx, seeker)
	require.Error(t, err)
	assert.False(t, snap.Complete)
	assert.Equal(t, sess.ID, snap.Sessions[opp.ID])

	env.store.Recover()
	snap, err = env.engagement.Snapshot(ctx, seeker)
	require.NoError(t, err)
	assert.True(t, snap.Complete)
}

func TestEngagement_ActionNeedsOnlyItsHalf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)
	seeker := newSeeker()

	env.store.FailOn(memory.OpSessionList, errors.New("connection reset"))

	_, err := env.engagement.Bookmark(ctx, seeker, opp.ID)
	require.NoError(t, err)

	_, err = env.engagement.Bookmark(ctx, seeker, opp.ID)
	assert.ErrorIs(t, err, apperror.ErrAlreadyBookmarked)
	assert.Equal(t, 1, env.store.Calls(memory.OpBookmarkCreate))

	_, err = env.engagement.ScheduleSession(ctx, seeker, &opp)
	assert.Equal(t, apperror.ErrCodeRemoteReadFailed, apperror.CodeOf(err))
	assert.Zero(t, env.store.Calls(memory.OpSessionCreate))
}

func TestEngagement_RefreshPicksUpExternalRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	opp := env.seedOpportunity(t, newHost(), "Data Analyst", models.FormatVirtual, nil)
	seeker := newSeeker()

	snap, err := env.engagement.Snapshot(ctx, seeker)
	require.NoError(t, err)
	assert.Empty(t, snap.Bookmarks)

	b := env.seedBookmark(t, seeker, opp.ID)
	snap, err = env.engagement.Refresh(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, b.ID, snap.Bookmarks[opp.ID])
}

func TestEngagement_RescheduleNotSupported(t *testing.T) {
	env := newTestEnv(t)

	err := env.engagement.RescheduleSession(context.Background(), newSeeker(), uuid.New())
	assert.Equal(t, apperror.ErrCodeNotSupported, apperror.CodeOf(err))
}

func TestEngagement_AnonymousSnapshotIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	snap, err := env.engagement.Snapshot(context.Background(), access.Anonymous)
	require.NoError(t, err)
	assert.Empty(t, snap.Bookmarks)
	assert.Zero(t, env.registry.Len())
}
