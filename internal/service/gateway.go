package service

import (
	"context"
	"errors"
	"time"

	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

// DefaultGatewayTimeout ограничение одного обращения к хранилищу по умолчанию.
const DefaultGatewayTimeout = 5 * time.Second

// gateway оборачивает обращения к хранилищу таймаутом и приводит ошибки к кодам приложения.
// common.ErrNotFound и ошибки приложения возвращаются как есть.
type gateway struct {
	timeout time.Duration
}

func newGateway(timeout time.Duration) gateway {
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return gateway{timeout: timeout}
}

func (g gateway) read(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	return g.call(ctx, apperror.ErrCodeRemoteReadFailed, what, fn)
}

func (g gateway) write(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	return g.call(ctx, apperror.ErrCodeRemoteWriteFailed, what, fn)
}

func (g gateway) call(ctx context.Context, code apperror.ErrorCode, what string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := fn(callCtx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(err, apperror.ErrCodeTimeout, "хранилище не ответило вовремя: "+what)
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, code, "ошибка хранилища: "+what)
}
