package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/career-compass/internal/models"
)

// SessionRepository работает с таблицей shadow_sessions.
type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.ShadowSession) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO shadow_sessions (user_id, opportunity_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, s.UserID, s.OpportunityID).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("session repository: create %w", err)
	}
	return nil
}

// Delete удаляет сессию пользователя. Ноль затронутых строк не ошибка.
func (r *SessionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shadow_sessions WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("session repository: delete %w", err)
	}
	return nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShadowSession, error) {
	var sessions []models.ShadowSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT id, user_id, opportunity_id, created_at
		FROM shadow_sessions WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("session repository: list %w", err)
	}
	return sessions, nil
}

// ListByOpportunities возвращает сессии, записанные на любую из возможностей.
func (r *SessionRepository) ListByOpportunities(ctx context.Context, opportunityIDs []uuid.UUID) ([]models.ShadowSession, error) {
	if len(opportunityIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(opportunityIDs))
	for i, id := range opportunityIDs {
		ids[i] = id.String()
	}

	var sessions []models.ShadowSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT id, user_id, opportunity_id, created_at
		FROM shadow_sessions WHERE opportunity_id = ANY($1::uuid[])
		ORDER BY created_at DESC
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("session repository: list by opportunities %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shadow_sessions WHERE opportunity_id = $1`, opportunityID)
	if err != nil {
		return 0, fmt.Errorf("session repository: delete by opportunity %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
