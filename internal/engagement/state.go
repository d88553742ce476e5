// Package engagement хранит на стороне сервера состояние вовлечённости зрителя:
// какие возможности он добавил в закладки и на какие записался.
package engagement

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/career-compass/internal/models"
)

// Source читает строки закладок и сессий зрителя из хранилища.
type Source interface {
	BookmarksOf(ctx context.Context, viewerID uuid.UUID) ([]models.Bookmark, error)
	SessionsOf(ctx context.Context, viewerID uuid.UUID) ([]models.ShadowSession, error)
}

// LoadError описывает частичный сбой загрузки. Успешная половина при этом применена.
type LoadError struct {
	Bookmarks error
	Sessions  error
}

func (e *LoadError) Error() string {
	switch {
	case e.Bookmarks != nil && e.Sessions != nil:
		return "engagement: не удалось загрузить закладки и сессии: " + errors.Join(e.Bookmarks, e.Sessions).Error()
	case e.Bookmarks != nil:
		return "engagement: не удалось загрузить закладки: " + e.Bookmarks.Error()
	default:
		return "engagement: не удалось загрузить сессии: " + e.Sessions.Error()
	}
}

func (e *LoadError) Unwrap() []error {
	var errs []error
	if e.Bookmarks != nil {
		errs = append(errs, e.Bookmarks)
	}
	if e.Sessions != nil {
		errs = append(errs, e.Sessions)
	}
	return errs
}

// State состояние одного зрителя. Для каждой отмеченной возможности хранится
// идентификатор строки, чтобы удаление можно было адресовать по возможности.
//
// Мутаторы Mark*/Unmark* только локальные и вызываются после успешной записи в хранилище.
// Пары "проверить, затем действовать" выполняются под WithActionLock.
type State struct {
	viewerID uuid.UUID

	mu        sync.RWMutex
	bookmarks map[uuid.UUID]uuid.UUID
	sessions  map[uuid.UUID]uuid.UUID
	complete  bool

	loadMu  sync.Mutex
	actions sync.Mutex
}

// NewState создаёт пустое состояние зрителя. uuid.Nil соответствует анониму.
func NewState(viewerID uuid.UUID) *State {
	return &State{
		viewerID:  viewerID,
		bookmarks: make(map[uuid.UUID]uuid.UUID),
		sessions:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *State) ViewerID() uuid.UUID {
	return s.viewerID
}

// Load параллельно загружает обе выборки и заменяет ими текущее состояние.
// Для анонима и зрителя без строк результат пустой без ошибки.
// При сбое одной выборки её множество остаётся пустым, вторая применяется, возвращается *LoadError.
func (s *State) Load(ctx context.Context, src Source) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.viewerID == uuid.Nil {
		s.replace(nil, nil, true)
		return nil
	}

	var (
		bookmarks   []models.Bookmark
		sessions    []models.ShadowSession
		bookmarkErr error
		sessionErr  error
		g           errgroup.Group
	)
	g.Go(func() error {
		bookmarks, bookmarkErr = src.BookmarksOf(ctx, s.viewerID)
		return bookmarkErr
	})
	g.Go(func() error {
		sessions, sessionErr = src.SessionsOf(ctx, s.viewerID)
		return sessionErr
	})

	if err := g.Wait(); err != nil {
		s.replace(bookmarks, sessions, false)
		return &LoadError{Bookmarks: bookmarkErr, Sessions: sessionErr}
	}
	s.replace(bookmarks, sessions, true)
	return nil
}

// ensureLoaded загружает состояние, если последняя загрузка не была полной.
func (s *State) ensureLoaded(ctx context.Context, src Source) error {
	if s.Complete() {
		return nil
	}
	return s.Load(ctx, src)
}

func (s *State) replace(bookmarks []models.Bookmark, sessions []models.ShadowSession, complete bool) {
	b := make(map[uuid.UUID]uuid.UUID, len(bookmarks))
	for _, row := range bookmarks {
		// первая строка побеждает: дубликаты, созданные в обход координатора, не мешают
		if _, ok := b[row.OpportunityID]; !ok {
			b[row.OpportunityID] = row.ID
		}
	}
	ss := make(map[uuid.UUID]uuid.UUID, len(sessions))
	for _, row := range sessions {
		if _, ok := ss[row.OpportunityID]; !ok {
			ss[row.OpportunityID] = row.ID
		}
	}

	s.mu.Lock()
	s.bookmarks = b
	s.sessions = ss
	s.complete = complete
	s.mu.Unlock()
}

// Complete сообщает, что обе выборки загружены успешно.
func (s *State) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.complete
}

func (s *State) IsBookmarked(opportunityID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bookmarks[opportunityID]
	return ok
}

func (s *State) IsScheduled(opportunityID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[opportunityID]
	return ok
}

// BookmarkID возвращает идентификатор закладки на возможность.
func (s *State) BookmarkID(opportunityID uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bookmarks[opportunityID]
	return id, ok
}

// SessionID возвращает идентификатор сессии на возможность.
func (s *State) SessionID(opportunityID uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[opportunityID]
	return id, ok
}

func (s *State) MarkBookmarked(opportunityID, bookmarkID uuid.UUID) {
	s.mu.Lock()
	s.bookmarks[opportunityID] = bookmarkID
	s.mu.Unlock()
}

func (s *State) UnmarkBookmarked(opportunityID uuid.UUID) {
	s.mu.Lock()
	delete(s.bookmarks, opportunityID)
	s.mu.Unlock()
}

func (s *State) MarkScheduled(opportunityID, sessionID uuid.UUID) {
	s.mu.Lock()
	s.sessions[opportunityID] = sessionID
	s.mu.Unlock()
}

func (s *State) UnmarkScheduled(opportunityID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, opportunityID)
	s.mu.Unlock()
}

// Forget убирает возможность из обоих множеств. Используется после каскадного удаления.
func (s *State) Forget(opportunityID uuid.UUID) {
	s.mu.Lock()
	delete(s.bookmarks, opportunityID)
	delete(s.sessions, opportunityID)
	s.mu.Unlock()
}

// WithActionLock выполняет fn под эксклюзивной блокировкой действий зрителя.
func (s *State) WithActionLock(fn func() error) error {
	s.actions.Lock()
	defer s.actions.Unlock()
	return fn()
}

// Snapshot копия состояния для отдачи наружу.
type Snapshot struct {
	ViewerID  uuid.UUID               `json:"viewer_id"`
	Bookmarks map[uuid.UUID]uuid.UUID `json:"bookmarks"`
	Sessions  map[uuid.UUID]uuid.UUID `json:"sessions"`
	Complete  bool                    `json:"complete"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ViewerID:  s.viewerID,
		Bookmarks: make(map[uuid.UUID]uuid.UUID, len(s.bookmarks)),
		Sessions:  make(map[uuid.UUID]uuid.UUID, len(s.sessions)),
		Complete:  s.complete,
	}
	for k, v := range s.bookmarks {
		snap.Bookmarks[k] = v
	}
	for k, v := range s.sessions {
		snap.Sessions[k] = v
	}
	return snap
}
