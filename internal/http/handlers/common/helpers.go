package common

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/http/middleware"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
)

// CurrentViewer возвращает зрителя запроса. Аноним, если токена нет.
func CurrentViewer(c *gin.Context) access.Viewer {
	return middleware.ViewerFrom(c)
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("параметр %s должен быть валидным UUID", paramName))
	}
	return parsed, nil
}

// ParseOptionalUUIDQuery разбирает необязательный UUID из query. Пустое значение даёт uuid.Nil.
func ParseOptionalUUIDQuery(c *gin.Context, key string) (uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return uuid.Nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("параметр %s должен быть валидным UUID", key))
	}
	return parsed, nil
}

// BindJSON разбирает тело запроса. Ошибка разбора приводится к ошибке валидации.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "ошибка валидации запроса: "+err.Error())
	}
	return nil
}

// Fail передаёт ошибку в middleware.ErrorHandler и прерывает обработку.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// RespondJSON отправляет JSON ответ.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondNoContent отвечает 204 без тела.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
