package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/http/handlers/common"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/service"
)

// EngagementHandler закладки, записи и состояние зрителя.
type EngagementHandler struct {
	engagement *service.EngagementService
	dashboard  *service.DashboardService
}

func NewEngagementHandler(engagement *service.EngagementService, dashboard *service.DashboardService) *EngagementHandler {
	return &EngagementHandler{engagement: engagement, dashboard: dashboard}
}

type opportunityRef struct {
	OpportunityID string `json:"opportunity_id" binding:"required,uuid"`
}

// Capabilities GET /me/capabilities
func (h *EngagementHandler) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, access.For(common.CurrentViewer(c)))
}

// State GET /me/engagement
func (h *EngagementHandler) State(c *gin.Context) {
	snap, err := h.engagement.Snapshot(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Refresh POST /me/engagement/refresh
func (h *EngagementHandler) Refresh(c *gin.Context) {
	snap, err := h.engagement.Refresh(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AddBookmark POST /bookmarks
func (h *EngagementHandler) AddBookmark(c *gin.Context) {
	var req opportunityRef
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	oppID, _ := uuid.Parse(req.OpportunityID)

	b, err := h.engagement.Bookmark(c.Request.Context(), common.CurrentViewer(c), oppID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// RemoveBookmark DELETE /bookmarks/:id?opportunity_id=
func (h *EngagementHandler) RemoveBookmark(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	oppID, err := common.ParseOptionalUUIDQuery(c, "opportunity_id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.engagement.RemoveBookmark(c.Request.Context(), common.CurrentViewer(c), id, oppID); err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondNoContent(c)
}

// ListBookmarks GET /bookmarks
func (h *EngagementHandler) ListBookmarks(c *gin.Context) {
	views, err := h.dashboard.Bookmarks(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": views})
}

// Schedule POST /sessions
func (h *EngagementHandler) Schedule(c *gin.Context) {
	var req opportunityRef
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	oppID, _ := uuid.Parse(req.OpportunityID)

	conf, err := h.engagement.ScheduleSessionByID(c.Request.Context(), common.CurrentViewer(c), oppID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}

// Cancel DELETE /sessions/:id?opportunity_id=
func (h *EngagementHandler) Cancel(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	oppID, err := common.ParseOptionalUUIDQuery(c, "opportunity_id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.engagement.CancelSession(c.Request.Context(), common.CurrentViewer(c), id, oppID); err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondNoContent(c)
}

// Reschedule POST /sessions/:id/reschedule
func (h *EngagementHandler) Reschedule(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Fail(c, h.engagement.RescheduleSession(c.Request.Context(), common.CurrentViewer(c), id))
}

// ListSessions GET /sessions?tab=all|upcoming|past
func (h *EngagementHandler) ListSessions(c *gin.Context) {
	views, err := h.dashboard.Sessions(c.Request.Context(), common.CurrentViewer(c), c.DefaultQuery("tab", models.TabAll))
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": views})
}
