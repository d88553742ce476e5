package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User описывает учётную запись платформы.
type User struct {
	ID           uuid.UUID `db:"id" json:"id" bson:"_id"`
	Email        string    `db:"email" json:"email" bson:"email"`
	PasswordHash string    `db:"password_hash" json:"-" bson:"password_hash"`
	Role         string    `db:"role" json:"role" bson:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at" bson:"created_at"`
}

// Profile описывает публичный профиль пользователя.
// Роль задаётся при регистрации и определяет доступные действия.
type Profile struct {
	UserID      uuid.UUID      `db:"user_id" json:"user_id" bson:"_id"`
	DisplayName string         `db:"display_name" json:"display_name" bson:"display_name"`
	Role        string         `db:"role" json:"role" bson:"role"`
	Bio         *string        `db:"bio" json:"bio,omitempty" bson:"bio,omitempty"`
	Skills      pq.StringArray `db:"skills" json:"skills" bson:"skills"`
	Preferences *string        `db:"preferences" json:"preferences,omitempty" bson:"preferences,omitempty"`
	AvatarURL   *string        `db:"avatar_url" json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at" bson:"updated_at"`
}
