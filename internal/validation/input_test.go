package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/career-compass/internal/models"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("Seeker@Example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("no-at-sign"))
	assert.Error(t, ValidateEmail("a@b"))
}

func TestValidateOpportunity(t *testing.T) {
	opp := &models.Opportunity{Title: "Data Analyst Shadow", Format: models.FormatVirtual, Duration: models.DurationHalfDay}
	assert.NoError(t, ValidateOpportunity(opp))

	opp.Format = "Remote"
	assert.Error(t, ValidateOpportunity(opp))

	opp.Format = models.FormatHybrid
	opp.Duration = "Weekend"
	assert.Error(t, ValidateOpportunity(opp))

	opp.Duration = models.DurationHour
	opp.Title = "  "
	assert.Error(t, ValidateOpportunity(opp))
}

func TestParseSchedule(t *testing.T) {
	at, err := ParseSchedule("")
	assert.NoError(t, err)
	assert.Nil(t, at)

	at, err = ParseSchedule("2026-05-01T09:00:00Z")
	assert.NoError(t, err)
	assert.Equal(t, 2026, at.Year())

	_, err = ParseSchedule("tomorrow")
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Shadow2026"))
	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("alllowercase1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}

func TestValidateRoleAndDisplayName(t *testing.T) {
	assert.NoError(t, ValidateRole(models.RoleHost))
	assert.Error(t, ValidateRole("admin"))
	assert.NoError(t, ValidateDisplayName("Мария O'Neil"))
	assert.Error(t, ValidateDisplayName("x"))
}
