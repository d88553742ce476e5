package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/career-compass/internal/models"
)

func TestBuildOpportunityQuery_NoFilters(t *testing.T) {
	query, args := buildOpportunityQuery(models.OpportunityFilter{})

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.Empty(t, args)
}

func TestBuildOpportunityQuery_SearchAndFilters(t *testing.T) {
	host := uuid.New()
	query, args := buildOpportunityQuery(models.OpportunityFilter{
		Search:     "data",
		Format:     models.FormatVirtual,
		Department: "Analytics",
		HostID:     &host,
	})

	assert.Contains(t, query, "(title ILIKE $1 OR location ILIKE $1)")
	assert.Contains(t, query, "format = $2")
	assert.Contains(t, query, "department = $3")
	assert.Contains(t, query, "host_id = $4")
	assert.NotContains(t, query, "duration =")
	assert.Equal(t, []interface{}{"%data%", models.FormatVirtual, "Analytics", host}, args)
}

func TestBuildOpportunityQuery_IDs(t *testing.T) {
	id := uuid.New()
	query, args := buildOpportunityQuery(models.OpportunityFilter{IDs: []uuid.UUID{id}})

	assert.Contains(t, query, "id = ANY($1::uuid[])")
	assert.Len(t, args, 1)
}
