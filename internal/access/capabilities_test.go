package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
)

func TestFor_Anonymous(t *testing.T) {
	caps := For(Anonymous)

	assert.False(t, caps.Authenticated)
	assert.True(t, caps.Can(ActionDiscover))
	assert.False(t, caps.Can(ActionBookmark))
	assert.True(t, apperror.IsUnauthenticated(Require(Anonymous, ActionBookmark)))
	assert.True(t, apperror.IsUnauthenticated(Require(Anonymous, ActionDeleteOpportunity)))
}

func TestFor_Seeker(t *testing.T) {
	v := Viewer{ID: uuid.New(), Role: models.RoleSeeker}
	caps := For(v)

	assert.Equal(t, models.RoleSeeker, caps.Role)
	assert.True(t, caps.Can(ActionBookmark))
	assert.True(t, caps.Can(ActionSchedule))
	assert.True(t, caps.Can(ActionCancelSession))
	assert.True(t, caps.Can(ActionBookmarkDashboard))
	assert.False(t, caps.Can(ActionCreateOpportunity))
	assert.True(t, apperror.IsForbidden(Require(v, ActionDeleteOpportunity)))
}

func TestFor_HostHidesBookmarking(t *testing.T) {
	v := Viewer{ID: uuid.New(), Role: models.RoleHost}
	caps := For(v)

	assert.True(t, caps.Can(ActionCreateOpportunity))
	assert.True(t, caps.Can(ActionManageDashboard))
	assert.True(t, caps.Can(ActionIncomingDashboard))
	assert.False(t, caps.Can(ActionBookmark))
	assert.False(t, caps.Can(ActionBookmarkDashboard))
	assert.True(t, apperror.IsForbidden(Require(v, ActionBookmark)))
}

func TestFor_LegacyRoleIsSeeker(t *testing.T) {
	caps := For(Viewer{ID: uuid.New(), Role: "user"})

	assert.Equal(t, models.RoleSeeker, caps.Role)
	assert.True(t, caps.Can(ActionBookmark))
}

func TestCanEdit_OnlyOwner(t *testing.T) {
	host := Viewer{ID: uuid.New(), Role: models.RoleHost}
	other := Viewer{ID: uuid.New(), Role: models.RoleHost}
	opp := models.Opportunity{ID: uuid.New(), HostID: host.ID}

	assert.NoError(t, CanEdit(host, opp))
	assert.True(t, apperror.IsForbidden(CanEdit(other, opp)))
	assert.True(t, apperror.IsUnauthenticated(CanEdit(Anonymous, opp)))
}
