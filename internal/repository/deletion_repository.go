package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

// DeletionRepository хранит маркеры прогресса каскадного удаления.
type DeletionRepository struct {
	db *sqlx.DB
}

func NewDeletionRepository(db *sqlx.DB) *DeletionRepository {
	return &DeletionRepository{db: db}
}

// Save создаёт или обновляет маркер.
func (r *DeletionRepository) Save(ctx context.Context, d *models.OpportunityDeletion) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO opportunity_deletions (opportunity_id, host_id, completed_step, failed_step, last_error, attempts, done)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (opportunity_id) DO UPDATE
		SET completed_step = EXCLUDED.completed_step,
			failed_step = EXCLUDED.failed_step,
			last_error = EXCLUDED.last_error,
			attempts = EXCLUDED.attempts,
			done = EXCLUDED.done,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`, d.OpportunityID, d.HostID, d.CompletedStep, d.FailedStep, d.LastError, d.Attempts, d.Done,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("deletion repository: save %w", err)
	}
	return nil
}

func (r *DeletionRepository) Get(ctx context.Context, opportunityID uuid.UUID) (*models.OpportunityDeletion, error) {
	var d models.OpportunityDeletion
	err := r.db.GetContext(ctx, &d, `SELECT * FROM opportunity_deletions WHERE opportunity_id = $1`, opportunityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deletion repository: get %w", err)
	}
	return &d, nil
}

// ListPending возвращает незавершённые удаления, старые первыми.
func (r *DeletionRepository) ListPending(ctx context.Context) ([]models.OpportunityDeletion, error) {
	var list []models.OpportunityDeletion
	if err := r.db.SelectContext(ctx, &list, `
		SELECT * FROM opportunity_deletions WHERE done = FALSE ORDER BY created_at
	`); err != nil {
		return nil, fmt.Errorf("deletion repository: list pending %w", err)
	}
	return list, nil
}
