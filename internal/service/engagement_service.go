package service

import (
	"context"
	"errors"
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

// BookingStatusConfirmed итоговое состояние успешной записи.
const BookingStatusConfirmed = "confirmed"

// BookingConfirmation результат записи на возможность.
type BookingConfirmation struct {
	Status        string     `json:"status"`
	SessionID     uuid.UUID  `json:"session_id"`
	OpportunityID uuid.UUID  `json:"opportunity_id"`
	Title         string     `json:"title"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
}

// EngagementService координирует закладки и записи зрителя.
//
// Локальное состояние меняется только после подтверждённой записи в хранилище.
// Проверка и запись выполняются под блокировкой действий зрителя, поэтому
// параллельные запросы одного зрителя не создают дубликатов.
type EngagementService struct {
	opps      OpportunityRepository
	bookmarks BookmarkRepository
	sessions  SessionRepository
	registry  *engagement.Registry
	gw        gateway
}

func NewEngagementService(
	opps OpportunityRepository,
	bookmarks BookmarkRepository,
	sessions SessionRepository,
	registry *engagement.Registry,
	timeout time.Duration,
) *EngagementService {
	return &EngagementService{
		opps:      opps,
		bookmarks: bookmarks,
		sessions:  sessions,
		registry:  registry,
		gw:        newGateway(timeout),
	}
}

// State возвращает полностью загруженное состояние зрителя.
func (s *EngagementService) State(ctx context.Context, viewer access.Viewer) (*engagement.State, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	st, err := s.registry.Get(ctx, viewer.ID)
	if err != nil {
		return nil, loadFailure(err)
	}
	return st, nil
}

// половины состояния, нужные действию
const (
	needBookmarks = iota
	needSessions
)

// stateFor возвращает состояние, если загружена половина, нужная действию.
// Сбой второй половины проверку "проверить, затем действовать" не затрагивает.
func (s *EngagementService) stateFor(ctx context.Context, viewer access.Viewer, need int) (*engagement.State, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	st, err := s.registry.Get(ctx, viewer.ID)
	if err == nil {
		return st, nil
	}
	var loadErr *engagement.LoadError
	if errors.As(err, &loadErr) {
		if (need == needBookmarks && loadErr.Bookmarks == nil) || (need == needSessions && loadErr.Sessions == nil) {
			logger.Log.WithField("viewer_id", viewer.ID).WithError(err).
				Warn("engagement: состояние загружено частично")
			return st, nil
		}
	}
	return nil, loadFailure(err)
}

// Snapshot состояние для отдачи клиенту. Для анонима пустое.
// При частичном сбое возвращается загруженная половина вместе с ошибкой.
func (s *EngagementService) Snapshot(ctx context.Context, viewer access.Viewer) (engagement.Snapshot, error) {
	st, err := s.registry.Get(ctx, viewer.ID)
	if err != nil {
		return st.Snapshot(), loadFailure(err)
	}
	return st.Snapshot(), nil
}

// Refresh перечитывает состояние зрителя.
func (s *EngagementService) Refresh(ctx context.Context, viewer access.Viewer) (engagement.Snapshot, error) {
	if !viewer.Authenticated() {
		return engagement.Snapshot{}, apperror.ErrUnauthenticated
	}
	st, err := s.registry.Refresh(ctx, viewer.ID)
	if err != nil {
		return st.Snapshot(), loadFailure(err)
	}
	return st.Snapshot(), nil
}

func loadFailure(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == apperror.ErrCodeTimeout {
		return apperror.Wrap(err, apperror.ErrCodeTimeout, "не удалось загрузить состояние вовлечённости вовремя")
	}
	return apperror.Wrap(err, apperror.ErrCodeRemoteReadFailed, "не удалось загрузить состояние вовлечённости")
}

// Bookmark добавляет возможность в закладки зрителя.
// Повторная закладка отклоняется с AlreadyExists без обращения к хранилищу.
func (s *EngagementService) Bookmark(ctx context.Context, viewer access.Viewer, opportunityID uuid.UUID) (*models.Bookmark, error) {
	if err := access.Require(viewer, access.ActionBookmark); err != nil {
		return nil, err
	}
	st, err := s.stateFor(ctx, viewer, needBookmarks)
	if err != nil {
		return nil, err
	}

	var bookmark *models.Bookmark
	err = st.WithActionLock(func() error {
		if st.IsBookmarked(opportunityID) {
			return apperror.ErrAlreadyBookmarked
		}
		if _, err := s.resolve(ctx, opportunityID); err != nil {
			return err
		}

		b := &models.Bookmark{UserID: viewer.ID, OpportunityID: opportunityID}
		if err := s.gw.write(ctx, "создание закладки", func(ctx context.Context) error {
			return s.bookmarks.Create(ctx, b)
		}); err != nil {
			return err
		}
		st.MarkBookmarked(opportunityID, b.ID)
		bookmark = b
		return nil
	})
	if err != nil {
		s.logFailure("bookmark", viewer, opportunityID, err)
		return nil, err
	}
	return bookmark, nil
}

// RemoveBookmark удаляет закладку по идентификатору. Если opportunityID не задан,
// возможность определяется по состоянию зрителя.
func (s *EngagementService) RemoveBookmark(ctx context.Context, viewer access.Viewer, bookmarkID, opportunityID uuid.UUID) error {
	if err := access.Require(viewer, access.ActionBookmark); err != nil {
		return err
	}
	st, err := s.stateFor(ctx, viewer, needBookmarks)
	if err != nil {
		return err
	}

	err = st.WithActionLock(func() error {
		if opportunityID == uuid.Nil {
			opportunityID = lookupOpportunity(st.Snapshot().Bookmarks, bookmarkID)
		}
		if err := s.gw.write(ctx, "удаление закладки", func(ctx context.Context) error {
			return s.bookmarks.Delete(ctx, bookmarkID, viewer.ID)
		}); err != nil {
			return err
		}
		if opportunityID != uuid.Nil {
			st.UnmarkBookmarked(opportunityID)
		}
		return nil
	})
	if err != nil {
		s.logFailure("remove_bookmark", viewer, opportunityID, err)
	}
	return err
}

// ScheduleSession записывает зрителя на возможность. opp == nil означает,
// что возможность не удалось загрузить.
func (s *EngagementService) ScheduleSession(ctx context.Context, viewer access.Viewer, opp *models.Opportunity) (*BookingConfirmation, error) {
	if err := access.Require(viewer, access.ActionSchedule); err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, apperror.ErrOpportunityNotFound
	}
	st, err := s.stateFor(ctx, viewer, needSessions)
	if err != nil {
		return nil, err
	}

	var confirmation *BookingConfirmation
	err = st.WithActionLock(func() error {
		if st.IsScheduled(opp.ID) {
			return apperror.ErrAlreadyScheduled
		}

		sess := &models.ShadowSession{UserID: viewer.ID, OpportunityID: opp.ID}
		if err := s.gw.write(ctx, "запись на сессию", func(ctx context.Context) error {
			return s.sessions.Create(ctx, sess)
		}); err != nil {
			return err
		}
		st.MarkScheduled(opp.ID, sess.ID)
		confirmation = &BookingConfirmation{
			Status:        BookingStatusConfirmed,
			SessionID:     sess.ID,
			OpportunityID: opp.ID,
			Title:         opp.Title,
			ScheduledAt:   opp.ScheduledAt,
		}
		return nil
	})
	if err != nil {
		s.logFailure("schedule", viewer, opp.ID, err)
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"viewer_id":      viewer.ID,
		"opportunity_id": opp.ID,
		"session_id":     confirmation.SessionID,
	}).Info("engagement: сессия запланирована")
	return confirmation, nil
}

// ScheduleSessionByID загружает возможность и записывает на неё зрителя.
func (s *EngagementService) ScheduleSessionByID(ctx context.Context, viewer access.Viewer, opportunityID uuid.UUID) (*BookingConfirmation, error) {
	if err := access.Require(viewer, access.ActionSchedule); err != nil {
		return nil, err
	}
	opp, err := s.resolve(ctx, opportunityID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	return s.ScheduleSession(ctx, viewer, opp)
}

// CancelSession отменяет запись по идентификатору сессии.
func (s *EngagementService) CancelSession(ctx context.Context, viewer access.Viewer, sessionID, opportunityID uuid.UUID) error {
	if err := access.Require(viewer, access.ActionCancelSession); err != nil {
		return err
	}
	st, err := s.stateFor(ctx, viewer, needSessions)
	if err != nil {
		return err
	}

	err = st.WithActionLock(func() error {
		if opportunityID == uuid.Nil {
			opportunityID = lookupOpportunity(st.Snapshot().Sessions, sessionID)
		}
		if err := s.gw.write(ctx, "отмена сессии", func(ctx context.Context) error {
			return s.sessions.Delete(ctx, sessionID, viewer.ID)
		}); err != nil {
			return err
		}
		if opportunityID != uuid.Nil {
			st.UnmarkScheduled(opportunityID)
		}
		return nil
	})
	if err != nil {
		s.logFailure("cancel_session", viewer, opportunityID, err)
	}
	return err
}

// RescheduleSession не поддерживается: в хранилище нет модели временных слотов.
// Клиенту предлагается отменить сессию и записаться заново.
func (s *EngagementService) RescheduleSession(_ context.Context, viewer access.Viewer, _ uuid.UUID) error {
	if err := access.Require(viewer, access.ActionCancelSession); err != nil {
		return err
	}
	return apperror.ErrRescheduleNotSupported
}

func (s *EngagementService) resolve(ctx context.Context, opportunityID uuid.UUID) (*models.Opportunity, error) {
	var opp *models.Opportunity
	err := s.gw.read(ctx, "чтение возможности", func(ctx context.Context) error {
		var err error
		opp, err = s.opps.GetByID(ctx, opportunityID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrOpportunityNotFound
	}
	return opp, err
}

func (s *EngagementService) logFailure(action string, viewer access.Viewer, opportunityID uuid.UUID, err error) {
	entry := logger.Log.WithFields(logrus.Fields{
		"action":         action,
		"viewer_id":      viewer.ID,
		"opportunity_id": opportunityID,
		"code":           apperror.CodeOf(err),
	})
	switch apperror.CodeOf(err) {
	case apperror.ErrCodeRemoteWriteFailed, apperror.ErrCodeRemoteReadFailed, apperror.ErrCodeTimeout, apperror.ErrCodeInternal:
		entry.WithError(err).Warn("engagement: действие не выполнено")
	default:
		entry.Debug("engagement: действие отклонено")
	}
}

func lookupOpportunity(marks map[uuid.UUID]uuid.UUID, rowID uuid.UUID) uuid.UUID {
	for oppID, id := range marks {
		if id == rowID {
			return oppID
		}
	}
	return uuid.Nil
}
