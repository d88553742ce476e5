package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/models"
)

// Репозитории возвращают common.ErrNotFound для отсутствующих строк.
// Удаления, не затронувшие ни одной строки, ошибкой не считаются.

// OpportunityRepository таблица opportunities.
type OpportunityRepository interface {
	List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	Create(ctx context.Context, opp *models.Opportunity) error
	Update(ctx context.Context, opp *models.Opportunity, hostID uuid.UUID) error
	DeleteOwned(ctx context.Context, id, hostID uuid.UUID) error
}

// BookmarkRepository таблица bookmarks.
type BookmarkRepository interface {
	Create(ctx context.Context, b *models.Bookmark) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error)
	DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error)
}

// SessionRepository таблица shadow_sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *models.ShadowSession) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShadowSession, error)
	ListByOpportunities(ctx context.Context, opportunityIDs []uuid.UUID) ([]models.ShadowSession, error)
	DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error)
}

// DeletionRepository маркеры прогресса каскадного удаления.
type DeletionRepository interface {
	Save(ctx context.Context, d *models.OpportunityDeletion) error
	Get(ctx context.Context, opportunityID uuid.UUID) (*models.OpportunityDeletion, error)
	ListPending(ctx context.Context) ([]models.OpportunityDeletion, error)
}

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User, profile *models.Profile) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}
