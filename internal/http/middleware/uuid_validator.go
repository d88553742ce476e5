package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр пути является валидным UUID.
// Использование: router.GET("/opportunities/:id", UUIDValidator("id"), handler.Get)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "параметр " + paramName + " должен быть валидным UUID",
				"code":  apperror.ErrCodeValidation,
			})
			return
		}
		c.Next()
	}
}
