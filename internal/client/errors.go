package client

import (
	"errors"
	"fmt"
)

// HTTPError ответ API со статусом 4xx/5xx.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	FailedStep string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus сообщает, что err (или обёрнутая ошибка) HTTPError с данным статусом.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// CodeOf возвращает машинный код ошибки API или пустую строку.
func CodeOf(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return ""
}
