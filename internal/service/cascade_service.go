package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/engagement"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

// CascadeError прерванное каскадное удаление. Completed перечисляет шаги,
// выполненные в этом запуске до сбоя.
//
// Возможные промежуточные состояния:
//   - сбой на sessions: ничего не удалено;
//   - сбой на bookmarks: сессии удалены, закладки и возможность остались;
//   - сбой на opportunity: сессии и закладки удалены, возможность осталась.
//
// Повторный запуск удаления завершает любое из них.
type CascadeError struct {
	OpportunityID uuid.UUID
	FailedStep    models.CascadeStep
	Completed     []models.CascadeStep
	Cause         error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("каскадное удаление %s прервано на шаге %s: %v", e.OpportunityID, e.FailedStep, e.Cause)
}

func (e *CascadeError) Unwrap() error {
	return e.Cause
}

// CascadeResult итог успешного удаления.
type CascadeResult struct {
	OpportunityID    uuid.UUID `json:"opportunity_id"`
	SessionsDeleted  int64     `json:"sessions_deleted"`
	BookmarksDeleted int64     `json:"bookmarks_deleted"`
	Resumed          bool      `json:"resumed"`
}

// CascadeService удаляет возможность вместе с зависимыми строками.
//
// Хранилище не поддерживает транзакции между таблицами, поэтому удаление выполняется
// сагой: сессии, затем закладки, затем сама возможность с проверкой владельца.
// Прогресс сохраняется в opportunity_deletions. Каждый шаг удаляет по opportunity_id
// и идемпотентен, поэтому повторный запуск выполняет все шаги заново: так же
// удаляются строки, созданные между сбоем и повтором.
type CascadeService struct {
	opps      OpportunityRepository
	bookmarks BookmarkRepository
	sessions  SessionRepository
	deletions DeletionRepository
	registry  *engagement.Registry
	cache     *CacheService
	gw        gateway
}

func NewCascadeService(
	opps OpportunityRepository,
	bookmarks BookmarkRepository,
	sessions SessionRepository,
	deletions DeletionRepository,
	registry *engagement.Registry,
	cache *CacheService,
	timeout time.Duration,
) *CascadeService {
	return &CascadeService{
		opps:      opps,
		bookmarks: bookmarks,
		sessions:  sessions,
		deletions: deletions,
		registry:  registry,
		cache:     cache,
		gw:        newGateway(timeout),
	}
}

// DeleteOpportunity выполняет каскадное удаление. Права проверяются первыми,
// без подтверждения ничего не происходит.
func (s *CascadeService) DeleteOpportunity(ctx context.Context, viewer access.Viewer, opportunityID uuid.UUID, confirmed bool) (*CascadeResult, error) {
	if err := access.Require(viewer, access.ActionDeleteOpportunity); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, apperror.ErrConfirmationRequired
	}

	marker := s.loadMarker(ctx, opportunityID)

	opp, err := s.resolveOpportunity(ctx, opportunityID)
	switch {
	case err == nil:
		if err := access.CanEdit(viewer, *opp); err != nil {
			return nil, err
		}
	case apperror.IsNotFound(err) && marker != nil && !marker.Done:
		// возможность уже удалена прошлым запуском, осталось закрыть маркер
		if marker.HostID != viewer.ID {
			return nil, apperror.ErrForbidden
		}
	default:
		return nil, err
	}

	resumed := marker != nil && !marker.Done
	if marker == nil || marker.Done {
		marker = &models.OpportunityDeletion{OpportunityID: opportunityID, HostID: viewer.ID}
	}
	marker.Attempts++
	marker.FailedStep = models.CascadeStepNone
	marker.LastError = nil
	marker.Done = false
	s.saveMarker(ctx, marker)

	log := logger.Log.WithFields(logrus.Fields{
		"opportunity_id": opportunityID,
		"host_id":        viewer.ID,
		"attempt":        marker.Attempts,
	})

	result := &CascadeResult{OpportunityID: opportunityID, Resumed: resumed}
	var completed []models.CascadeStep

	for _, step := range models.CascadeSteps {
		if err := s.runStep(ctx, step, opportunityID, viewer.ID, result); err != nil {
			msg := err.Error()
			marker.FailedStep = step
			marker.LastError = &msg
			s.saveMarker(ctx, marker)

			log.WithFields(logrus.Fields{"step": step, "completed": completed}).
				WithError(err).Error("cascade: удаление прервано")

			cascadeErr := &CascadeError{
				OpportunityID: opportunityID,
				FailedStep:    step,
				Completed:     completed,
				Cause:         err,
			}
			return nil, apperror.Wrap(cascadeErr, apperror.ErrCodePartialCascade,
				fmt.Sprintf("удаление прервано на шаге %s, повторите удаление", step))
		}
		completed = append(completed, step)
		marker.CompletedStep = step
		s.saveMarker(ctx, marker)
		log.WithField("step", step).Debug("cascade: шаг выполнен")
	}

	marker.Done = true
	s.saveMarker(ctx, marker)

	if s.cache != nil {
		s.cache.InvalidateListings()
	}
	s.registry.Forget(opportunityID)

	log.WithFields(logrus.Fields{
		"sessions_deleted":  result.SessionsDeleted,
		"bookmarks_deleted": result.BookmarksDeleted,
	}).Info("cascade: возможность удалена")
	return result, nil
}

func (s *CascadeService) runStep(ctx context.Context, step models.CascadeStep, opportunityID, hostID uuid.UUID, result *CascadeResult) error {
	switch step {
	case models.CascadeStepSessions:
		return s.gw.write(ctx, "удаление сессий возможности", func(ctx context.Context) error {
			n, err := s.sessions.DeleteByOpportunity(ctx, opportunityID)
			result.SessionsDeleted += n
			return err
		})
	case models.CascadeStepBookmarks:
		return s.gw.write(ctx, "удаление закладок возможности", func(ctx context.Context) error {
			n, err := s.bookmarks.DeleteByOpportunity(ctx, opportunityID)
			result.BookmarksDeleted += n
			return err
		})
	case models.CascadeStepOpportunity:
		return s.gw.write(ctx, "удаление возможности", func(ctx context.Context) error {
			return s.opps.DeleteOwned(ctx, opportunityID, hostID)
		})
	default:
		return apperror.New(apperror.ErrCodeInternal, "неизвестный шаг каскада "+string(step))
	}
}

// Resume продолжает незавершённое удаление от имени хоста из маркера.
func (s *CascadeService) Resume(ctx context.Context, opportunityID uuid.UUID) (*CascadeResult, error) {
	var marker *models.OpportunityDeletion
	err := s.gw.read(ctx, "чтение маркера удаления", func(ctx context.Context) error {
		var err error
		marker, err = s.deletions.Get(ctx, opportunityID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "незавершённое удаление не найдено")
	}
	if err != nil {
		return nil, err
	}
	if marker.Done {
		return &CascadeResult{OpportunityID: opportunityID}, nil
	}

	host := access.Viewer{ID: marker.HostID, Role: models.RoleHost}
	return s.DeleteOpportunity(ctx, host, opportunityID, true)
}

// Pending возвращает незавершённые удаления.
func (s *CascadeService) Pending(ctx context.Context) ([]models.OpportunityDeletion, error) {
	var list []models.OpportunityDeletion
	err := s.gw.read(ctx, "список незавершённых удалений", func(ctx context.Context) error {
		var err error
		list, err = s.deletions.ListPending(ctx)
		return err
	})
	return list, err
}

func (s *CascadeService) resolveOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	var opp *models.Opportunity
	err := s.gw.read(ctx, "чтение возможности", func(ctx context.Context) error {
		var err error
		opp, err = s.opps.GetByID(ctx, id)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrOpportunityNotFound
	}
	return opp, err
}

// loadMarker читает маркер. Сбой чтения не мешает удалению.
func (s *CascadeService) loadMarker(ctx context.Context, id uuid.UUID) *models.OpportunityDeletion {
	var marker *models.OpportunityDeletion
	err := s.gw.read(ctx, "чтение маркера удаления", func(ctx context.Context) error {
		var err error
		marker, err = s.deletions.Get(ctx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logger.Log.WithField("opportunity_id", id).WithError(err).Warn("cascade: не удалось прочитать маркер")
		}
		return nil
	}
	return marker
}

// saveMarker сохраняет прогресс. Сбой записи маркера логируется и не прерывает удаление.
func (s *CascadeService) saveMarker(ctx context.Context, marker *models.OpportunityDeletion) {
	err := s.gw.write(ctx, "сохранение маркера удаления", func(ctx context.Context) error {
		return s.deletions.Save(ctx, marker)
	})
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"opportunity_id": marker.OpportunityID,
			"completed_step": marker.CompletedStep,
		}).WithError(err).Warn("cascade: не удалось сохранить маркер")
	}
}

// FailedStepOf возвращает шаг, на котором прервалось удаление, если err его содержит.
func FailedStepOf(err error) (models.CascadeStep, bool) {
	var cascadeErr *CascadeError
	if errors.As(err, &cascadeErr) {
		return cascadeErr.FailedStep, true
	}
	return models.CascadeStepNone, false
}
