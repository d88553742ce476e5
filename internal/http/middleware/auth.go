package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AuthMiddleware проверяет JWT access токен. Без валидного токена запрос отклоняется.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := parseBearer(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": apperror.ErrUnauthenticated.Message,
				"code":  apperror.ErrCodeUnauthenticated,
			})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// OptionalAuth пропускает запрос в любом случае. Отсутствующий или невалидный
// токен означает анонимного зрителя.
func OptionalAuth(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, role, ok := parseBearer(c, tokens); ok {
			c.Set(ContextUserIDKey, userID)
			c.Set(ContextRoleKey, role)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, tokens *service.TokenManager) (uuid.UUID, string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return uuid.Nil, "", false
	}

	userID, role, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, "", false
	}
	return userID, role, true
}

// ViewerFrom возвращает зрителя запроса. Без аутентификации возвращается аноним.
func ViewerFrom(c *gin.Context) access.Viewer {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return access.Anonymous
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		return access.Anonymous
	}
	role, _ := c.Get(ContextRoleKey)
	roleStr, _ := role.(string)
	return access.Viewer{ID: userID, Role: roleStr}
}
