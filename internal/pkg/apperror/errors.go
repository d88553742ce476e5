package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeUnauthenticated      ErrorCode = "UNAUTHENTICATED"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeAlreadyExists        ErrorCode = "ALREADY_EXISTS"
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"
	ErrCodeRemoteWriteFailed    ErrorCode = "REMOTE_WRITE_FAILED"
	ErrCodeRemoteReadFailed     ErrorCode = "REMOTE_READ_FAILED"
	ErrCodePartialCascade       ErrorCode = "PARTIAL_CASCADE_FAILURE"
	ErrCodeTimeout              ErrorCode = "TIMEOUT"
	ErrCodeNotSupported         ErrorCode = "NOT_SUPPORTED"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation, ErrCodeConfirmationRequired:
		return http.StatusBadRequest
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeRemoteWriteFailed, ErrCodeRemoteReadFailed, ErrCodePartialCascade:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeNotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки приложения или ErrCodeInternal для прочих ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return Is(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return Is(err, ErrCodeValidation)
}

func IsAlreadyExists(err error) bool {
	return Is(err, ErrCodeAlreadyExists)
}

func IsUnauthenticated(err error) bool {
	return Is(err, ErrCodeUnauthenticated)
}

var (
	ErrOpportunityNotFound    = New(ErrCodeNotFound, "возможность не найдена")
	ErrSessionNotFound        = New(ErrCodeNotFound, "сессия не найдена")
	ErrUserNotFound           = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthenticated        = New(ErrCodeUnauthenticated, "требуется авторизация")
	ErrForbidden              = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials     = New(ErrCodeUnauthenticated, "неверные учетные данные")
	ErrAlreadyBookmarked      = New(ErrCodeAlreadyExists, "возможность уже в закладках")
	ErrAlreadyScheduled       = New(ErrCodeAlreadyExists, "сессия уже запланирована")
	ErrConfirmationRequired   = New(ErrCodeConfirmationRequired, "удаление требует подтверждения")
	ErrRescheduleNotSupported = New(ErrCodeNotSupported, "перенос сессии пока не поддерживается: отмените сессию и запишитесь заново")
)
