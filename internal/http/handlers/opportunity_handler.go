package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/http/handlers/common"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/service"
	"github.com/ignatzorin/career-compass/internal/validation"
)

// OpportunityHandler поиск и управление возможностями.
type OpportunityHandler struct {
	opps    *service.OpportunityService
	cascade *service.CascadeService
}

func NewOpportunityHandler(opps *service.OpportunityService, cascade *service.CascadeService) *OpportunityHandler {
	return &OpportunityHandler{opps: opps, cascade: cascade}
}

type opportunityRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Format       *string `json:"format"`
	Duration     *string `json:"duration"`
	ScheduledAt  *string `json:"scheduled_at"`
	Location     *string `json:"location"`
	Department   *string `json:"department"`
	Requirements *string `json:"requirements"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Search GET /opportunities?q=&format=&duration=&department=
func (h *OpportunityHandler) Search(c *gin.Context) {
	q := discovery.Query{Text: c.Query("q"), Filters: map[string]string{}}
	for _, name := range discovery.KnownFilters {
		if v := c.Query(name); v != "" {
			q.Filters[name] = v
		}
	}

	opps, err := h.opps.Discover(c.Request.Context(), q)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": opps, "total": len(opps)})
}

// Get GET /opportunities/:id
func (h *OpportunityHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	opp, err := h.opps.Get(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// Mine GET /opportunities/mine?tab=all|upcoming|past
func (h *OpportunityHandler) Mine(c *gin.Context) {
	opps, err := h.opps.ListForHost(c.Request.Context(), common.CurrentViewer(c), c.DefaultQuery("tab", models.TabAll))
	if err != nil {
		common.Fail(c, err)
		return
	}
	if opps == nil {
		opps = []models.Opportunity{}
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": opps})
}

// Create POST /opportunities
func (h *OpportunityHandler) Create(c *gin.Context) {
	var req opportunityRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	scheduledAt, err := validation.ParseSchedule(deref(req.ScheduledAt))
	if err != nil {
		common.Fail(c, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error()))
		return
	}

	opp, err := h.opps.Create(c.Request.Context(), common.CurrentViewer(c), service.OpportunityInput{
		Title:        deref(req.Title),
		Description:  deref(req.Description),
		Format:       deref(req.Format),
		Duration:     deref(req.Duration),
		ScheduledAt:  scheduledAt,
		Location:     deref(req.Location),
		Department:   deref(req.Department),
		Requirements: deref(req.Requirements),
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, opp)
}

// Update PUT /opportunities/:id. Пустая строка scheduled_at снимает дату.
func (h *OpportunityHandler) Update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req opportunityRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	patch := models.OpportunityPatch{
		Title:        req.Title,
		Description:  req.Description,
		Format:       req.Format,
		Duration:     req.Duration,
		Location:     req.Location,
		Department:   req.Department,
		Requirements: req.Requirements,
	}
	if req.ScheduledAt != nil {
		at, err := validation.ParseSchedule(*req.ScheduledAt)
		if err != nil {
			common.Fail(c, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error()))
			return
		}
		patch.ScheduledAt = at
		patch.ClearSchedule = at == nil
	}

	opp, err := h.opps.Update(c.Request.Context(), common.CurrentViewer(c), id, patch)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// Delete DELETE /opportunities/:id?confirm=true
func (h *OpportunityHandler) Delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	res, err := h.cascade.DeleteOpportunity(c.Request.Context(), common.CurrentViewer(c), id, confirmed)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
