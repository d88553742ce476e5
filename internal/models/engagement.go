package models

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark фиксирует интерес пользователя к возможности.
type Bookmark struct {
	ID            uuid.UUID `db:"id" json:"id" bson:"_id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id" bson:"user_id"`
	OpportunityID uuid.UUID `db:"opportunity_id" json:"opportunity_id" bson:"opportunity_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at" bson:"created_at"`
}

// ShadowSession фиксирует запись пользователя на возможность.
type ShadowSession struct {
	ID            uuid.UUID `db:"id" json:"id" bson:"_id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id" bson:"user_id"`
	OpportunityID uuid.UUID `db:"opportunity_id" json:"opportunity_id" bson:"opportunity_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at" bson:"created_at"`
}
