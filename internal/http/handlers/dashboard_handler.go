package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/career-compass/internal/http/handlers/common"
	"github.com/ignatzorin/career-compass/internal/service"
)

// DashboardHandler дашборд зрителя.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get GET /dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	dash, err := h.dashboard.Dashboard(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
