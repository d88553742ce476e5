package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

// UserRepository отвечает за работу с таблицами users и profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт пользователя вместе с профилем в одной транзакции.
// Дубликат email возвращается как common.ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO users (email, password_hash, role)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, user.Email, user.PasswordHash, user.Role).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return common.ErrAlreadyExists
			}
			return fmt.Errorf("user repository: create %w", err)
		}

		profile.UserID = user.ID
		if profile.Skills == nil {
			profile.Skills = pq.StringArray{}
		}
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO profiles (user_id, display_name, role, bio, skills, preferences, avatar_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING updated_at
		`, profile.UserID, profile.DisplayName, profile.Role, profile.Bio, profile.Skills,
			profile.Preferences, profile.AvatarURL).Scan(&profile.UpdatedAt)
		if err != nil {
			return fmt.Errorf("user repository: create profile %w", err)
		}
		return nil
	})
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db, "users", "email", email, common.ErrNotFound)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, common.ErrNotFound)
}

// GetProfile возвращает профиль пользователя.
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT user_id, display_name, role, bio, skills, preferences, avatar_url, updated_at
		FROM profiles WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user repository: get profile %w", err)
	}
	return &profile, nil
}
