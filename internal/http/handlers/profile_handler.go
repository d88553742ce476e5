package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/career-compass/internal/http/handlers/common"
	"github.com/ignatzorin/career-compass/internal/service"
)

// ProfileHandler отдаёт профили. Редактирование профиля не поддерживается.
type ProfileHandler struct {
	auth *service.AuthService
}

// NewProfileHandler создаёт экземпляр.
func NewProfileHandler(auth *service.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

// GetMe GET /me
func (h *ProfileHandler) GetMe(c *gin.Context) {
	profile, err := h.auth.Profile(c.Request.Context(), common.CurrentViewer(c).ID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, profile)
}

// GetUserProfile GET /users/:id/profile. Профиль не содержит email.
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	profile, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, profile)
}
