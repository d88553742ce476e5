package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/career-compass/internal/models"
)

// BookmarkRepository работает с таблицей bookmarks.
type BookmarkRepository struct {
	db *sqlx.DB
}

func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Create(ctx context.Context, b *models.Bookmark) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO bookmarks (user_id, opportunity_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, b.UserID, b.OpportunityID).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("bookmark repository: create %w", err)
	}
	return nil
}

// Delete удаляет закладку пользователя. Ноль затронутых строк не ошибка.
func (r *BookmarkRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("bookmark repository: delete %w", err)
	}
	return nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.SelectContext(ctx, &bookmarks, `
		SELECT id, user_id, opportunity_id, created_at
		FROM bookmarks WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("bookmark repository: list %w", err)
	}
	return bookmarks, nil
}

func (r *BookmarkRepository) DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE opportunity_id = $1`, opportunityID)
	if err != nil {
		return 0, fmt.Errorf("bookmark repository: delete by opportunity %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
