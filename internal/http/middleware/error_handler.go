package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/service"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Ошибки приложения отдаются с их кодом и статусом, прочие маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := ErrorResponse(err)

		entry := logger.Log.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
			"code":   body["code"],
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("http: запрос завершился ошибкой")
		} else {
			entry.Debug("http: запрос отклонён")
		}

		c.JSON(status, body)
	}
}

// ErrorResponse статус и тело ответа для ошибки.
func ErrorResponse(err error) (int, gin.H) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, gin.H{
			"error": "внутренняя ошибка сервера",
			"code":  apperror.ErrCodeInternal,
		}
	}

	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if step, ok := service.FailedStepOf(err); ok {
		body["failed_step"] = step
	}
	if appErr.Code == apperror.ErrCodeInternal {
		body["error"] = "внутренняя ошибка сервера"
	}
	return appErr.HTTPStatus, body
}
