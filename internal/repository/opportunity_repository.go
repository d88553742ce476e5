package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

const opportunityColumns = `id, host_id, title, description, format, duration, scheduled_at, location, department, requirements, created_at, updated_at`

// OpportunityRepository работает с таблицей opportunities.
type OpportunityRepository struct {
	db *sqlx.DB
}

// NewOpportunityRepository создаёт экземпляр репозитория.
func NewOpportunityRepository(db *sqlx.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// List возвращает возможности по фильтру, новые первыми.
func (r *OpportunityRepository) List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error) {
	query, args := buildOpportunityQuery(filter)

	var opps []models.Opportunity
	if err := r.db.SelectContext(ctx, &opps, query, args...); err != nil {
		return nil, fmt.Errorf("opportunity repository: list %w", err)
	}
	return opps, nil
}

func buildOpportunityQuery(filter models.OpportunityFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg(common.ContainsPattern(filter.Search))
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR location ILIKE %s)", p, p))
	}
	if filter.Format != "" {
		conditions = append(conditions, "format = "+arg(filter.Format))
	}
	if filter.Duration != "" {
		conditions = append(conditions, "duration = "+arg(filter.Duration))
	}
	if filter.Department != "" {
		conditions = append(conditions, "department = "+arg(filter.Department))
	}
	if filter.HostID != nil {
		conditions = append(conditions, "host_id = "+arg(*filter.HostID))
	}
	if filter.IDs != nil {
		ids := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			ids[i] = id.String()
		}
		conditions = append(conditions, "id = ANY("+arg(pq.Array(ids))+"::uuid[])")
	}

	query := `SELECT ` + opportunityColumns + ` FROM opportunities`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	return query, args
}

// GetByID возвращает возможность по идентификатору.
func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	return common.GetByID[models.Opportunity](ctx, r.db, "opportunities", id, common.ErrNotFound)
}

// Create вставляет новую возможность.
func (r *OpportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	query := `
		INSERT INTO opportunities (host_id, title, description, format, duration, scheduled_at, location, department, requirements)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		opp.HostID, opp.Title, opp.Description, opp.Format, opp.Duration,
		opp.ScheduledAt, opp.Location, opp.Department, opp.Requirements,
	).Scan(&opp.ID, &opp.CreatedAt, &opp.UpdatedAt); err != nil {
		return fmt.Errorf("opportunity repository: create %w", err)
	}
	return nil
}

// Update сохраняет изменения. Строка обновляется только если принадлежит хосту hostID,
// иначе возвращается common.ErrNotFound.
func (r *OpportunityRepository) Update(ctx context.Context, opp *models.Opportunity, hostID uuid.UUID) error {
	query := `
		UPDATE opportunities
		SET title = $3, description = $4, format = $5, duration = $6, scheduled_at = $7,
			location = $8, department = $9, requirements = $10, updated_at = NOW()
		WHERE id = $1 AND host_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		opp.ID, hostID, opp.Title, opp.Description, opp.Format, opp.Duration,
		opp.ScheduledAt, opp.Location, opp.Department, opp.Requirements,
	).Scan(&opp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("opportunity repository: update %w", err)
	}
	return nil
}

// DeleteOwned удаляет возможность хоста. Отсутствие строки не считается ошибкой.
func (r *OpportunityRepository) DeleteOwned(ctx context.Context, id, hostID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM opportunities WHERE id = $1 AND host_id = $2`, id, hostID); err != nil {
		return fmt.Errorf("opportunity repository: delete %w", err)
	}
	return nil
}

// BulkCreate вставляет возможности пачками в одной транзакции.
// Идентификаторы и временные метки назначает база.
func (r *OpportunityRepository) BulkCreate(ctx context.Context, opps []models.Opportunity) (int, error) {
	const insert = `INSERT INTO opportunities (host_id, title, description, format, duration, scheduled_at, location, department, requirements)`

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		batch := common.NewBatchInserter(tx, insert, 9, 100)
		for _, opp := range opps {
			if err := batch.Add(ctx,
				opp.HostID, opp.Title, opp.Description, opp.Format, opp.Duration,
				opp.ScheduledAt, opp.Location, opp.Department, opp.Requirements,
			); err != nil {
				return err
			}
		}
		return batch.Flush(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("opportunity repository: bulk create %w", err)
	}
	return len(opps), nil
}
