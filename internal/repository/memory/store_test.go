package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

func TestStore_ListFiltersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Opportunities()

	first := &models.Opportunity{Title: "Data Analyst Shadow", Location: "Boston", Format: models.FormatVirtual}
	second := &models.Opportunity{Title: "Nurse Shadow", Location: "Data City", Format: models.FormatInPerson}
	third := &models.Opportunity{Title: "Big Data Engineer", Location: "Remote", Format: models.FormatVirtual}
	for _, o := range []*models.Opportunity{first, second, third} {
		require.NoError(t, repo.Create(ctx, o))
	}

	got, err := repo.List(ctx, models.OpportunityFilter{Search: "data", Format: models.FormatVirtual})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, third.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestStore_DeleteOwnedGuardsHost(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Opportunities()
	host := uuid.New()
	opp := &models.Opportunity{HostID: host, Title: "x"}
	require.NoError(t, repo.Create(ctx, opp))

	require.NoError(t, repo.DeleteOwned(ctx, opp.ID, uuid.New()))
	_, err := repo.GetByID(ctx, opp.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteOwned(ctx, opp.ID, host))
	_, err = repo.GetByID(ctx, opp.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_FailOnAndCalls(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")
	store.FailOn(OpBookmarkCreate, boom)

	err := store.Bookmarks().Create(ctx, &models.Bookmark{UserID: uuid.New(), OpportunityID: uuid.New()})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.Calls(OpBookmarkCreate))

	store.Recover(OpBookmarkCreate)
	require.NoError(t, store.Bookmarks().Create(ctx, &models.Bookmark{UserID: uuid.New(), OpportunityID: uuid.New()}))
	_, bookmarks, _ := store.Counts()
	assert.Equal(t, 1, bookmarks)
}

func TestStore_HookSeesContext(t *testing.T) {
	store := NewStore()
	store.SetHook(func(ctx context.Context, op string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Sessions().ListByUser(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()
	require.NoError(t, users.Create(ctx, &models.User{Email: "a@example.com"}, &models.Profile{}))

	err := users.Create(ctx, &models.User{Email: "A@example.com"}, &models.Profile{})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}
