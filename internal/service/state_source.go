package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/engagement"
	"github.com/ignatzorin/career-compass/internal/models"
)

// stateSource читает строки вовлечённости через gateway с таймаутом.
type stateSource struct {
	bookmarks BookmarkRepository
	sessions  SessionRepository
	gw        gateway
}

// NewStateSource возвращает источник для engagement.Registry.
func NewStateSource(bookmarks BookmarkRepository, sessions SessionRepository, timeout time.Duration) engagement.Source {
	return &stateSource{bookmarks: bookmarks, sessions: sessions, gw: newGateway(timeout)}
}

func (s *stateSource) BookmarksOf(ctx context.Context, viewerID uuid.UUID) ([]models.Bookmark, error) {
	var out []models.Bookmark
	err := s.gw.read(ctx, "загрузка закладок", func(ctx context.Context) error {
		var err error
		out, err = s.bookmarks.ListByUser(ctx, viewerID)
		return err
	})
	return out, err
}

func (s *stateSource) SessionsOf(ctx context.Context, viewerID uuid.UUID) ([]models.ShadowSession, error) {
	var out []models.ShadowSession
	err := s.gw.read(ctx, "загрузка сессий", func(ctx context.Context) error {
		var err error
		out, err = s.sessions.ListByUser(ctx, viewerID)
		return err
	})
	return out, err
}
