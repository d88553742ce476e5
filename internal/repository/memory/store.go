// Package memory хранилище в памяти с внедрением сбоев. Используется в тестах
// и при STORE_DRIVER=memory для локальных демонстраций.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

// Имена операций для FailOn и Calls.
const (
	OpOpportunityList     = "opportunities.list"
	OpOpportunityGet      = "opportunities.get"
	OpOpportunityCreate   = "opportunities.create"
	OpOpportunityUpdate   = "opportunities.update"
	OpOpportunityDelete   = "opportunities.delete"
	OpBookmarkCreate      = "bookmarks.create"
	OpBookmarkDelete      = "bookmarks.delete"
	OpBookmarkList        = "bookmarks.list"
	OpBookmarkDeleteByOpp = "bookmarks.delete_by_opportunity"
	OpSessionCreate       = "sessions.create"
	OpSessionDelete       = "sessions.delete"
	OpSessionList         = "sessions.list"
	OpSessionListByOpps   = "sessions.list_by_opportunities"
	OpSessionDeleteByOpp  = "sessions.delete_by_opportunity"
	OpUserCreate          = "users.create"
	OpUserGet             = "users.get"
	OpProfileGet          = "profiles.get"
	OpDeletionSave        = "deletions.save"
	OpDeletionGet         = "deletions.get"
	OpDeletionList        = "deletions.list"
)

// Hook вызывается перед каждой операцией. Ненулевая ошибка прерывает операцию.
type Hook func(ctx context.Context, op string) error

// Store общее состояние всех таблиц.
type Store struct {
	mu            sync.Mutex
	opportunities map[uuid.UUID]models.Opportunity
	bookmarks     map[uuid.UUID]models.Bookmark
	sessions      map[uuid.UUID]models.ShadowSession
	users         map[uuid.UUID]models.User
	profiles      map[uuid.UUID]models.Profile
	deletions     map[uuid.UUID]models.OpportunityDeletion

	faults map[string]error
	calls  map[string]int
	hook   Hook
	last   time.Time
}

func NewStore() *Store {
	return &Store{
		opportunities: make(map[uuid.UUID]models.Opportunity),
		bookmarks:     make(map[uuid.UUID]models.Bookmark),
		sessions:      make(map[uuid.UUID]models.ShadowSession),
		users:         make(map[uuid.UUID]models.User),
		profiles:      make(map[uuid.UUID]models.Profile),
		deletions:     make(map[uuid.UUID]models.OpportunityDeletion),
		faults:        make(map[string]error),
		calls:         make(map[string]int),
	}
}

// FailOn заставляет операцию op возвращать err до вызова Recover.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	s.faults[op] = err
	s.mu.Unlock()
}

// Recover снимает внедрённые сбои. Без аргументов снимает все.
func (s *Store) Recover(ops ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ops) == 0 {
		s.faults = make(map[string]error)
		return
	}
	for _, op := range ops {
		delete(s.faults, op)
	}
}

// SetHook задаёт хук, который выполняется без блокировки хранилища.
func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// Calls количество вызовов операции, включая неуспешные.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// begin учитывает вызов, выполняет хук и внедрённый сбой. При успехе хранилище заблокировано.
func (s *Store) begin(ctx context.Context, op string) error {
	s.mu.Lock()
	s.calls[op]++
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, op); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.faults[op]; err != nil {
		s.mu.Unlock()
		return err
	}
	return nil
}

// now возвращает строго возрастающее время, чтобы порядок created_at был детерминирован.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Counts количество строк в таблицах возможностей, закладок и сессий.
func (s *Store) Counts() (opportunities, bookmarks, sessions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.opportunities), len(s.bookmarks), len(s.sessions)
}

func (s *Store) Opportunities() *OpportunityRepository { return &OpportunityRepository{s: s} }
func (s *Store) Bookmarks() *BookmarkRepository        { return &BookmarkRepository{s: s} }
func (s *Store) Sessions() *SessionRepository          { return &SessionRepository{s: s} }
func (s *Store) Users() *UserRepository                { return &UserRepository{s: s} }
func (s *Store) Deletions() *DeletionRepository        { return &DeletionRepository{s: s} }

// OpportunityRepository таблица opportunities.
type OpportunityRepository struct{ s *Store }

func (r *OpportunityRepository) List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error) {
	if err := r.s.begin(ctx, OpOpportunityList); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	var out []models.Opportunity
	for _, o := range r.s.opportunities {
		if filter.Matches(o) {
			out = append(out, o)
		}
	}
	models.SortNewestFirst(out)
	return out, nil
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	if err := r.s.begin(ctx, OpOpportunityGet); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	o, ok := r.s.opportunities[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &o, nil
}

func (r *OpportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	if err := r.s.begin(ctx, OpOpportunityCreate); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	now := r.s.now()
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = now
	}
	opp.UpdatedAt = now
	r.s.opportunities[opp.ID] = *opp
	return nil
}

func (r *OpportunityRepository) Update(ctx context.Context, opp *models.Opportunity, hostID uuid.UUID) error {
	if err := r.s.begin(ctx, OpOpportunityUpdate); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	existing, ok := r.s.opportunities[opp.ID]
	if !ok || existing.HostID != hostID {
		return common.ErrNotFound
	}
	opp.HostID = existing.HostID
	opp.CreatedAt = existing.CreatedAt
	opp.UpdatedAt = r.s.now()
	r.s.opportunities[opp.ID] = *opp
	return nil
}

func (r *OpportunityRepository) DeleteOwned(ctx context.Context, id, hostID uuid.UUID) error {
	if err := r.s.begin(ctx, OpOpportunityDelete); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if o, ok := r.s.opportunities[id]; ok && o.HostID == hostID {
		delete(r.s.opportunities, id)
	}
	return nil
}

// BookmarkRepository таблица bookmarks.
type BookmarkRepository struct{ s *Store }

func (r *BookmarkRepository) Create(ctx context.Context, b *models.Bookmark) error {
	if err := r.s.begin(ctx, OpBookmarkCreate); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	b.ID = uuid.New()
	b.CreatedAt = r.s.now()
	r.s.bookmarks[b.ID] = *b
	return nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := r.s.begin(ctx, OpBookmarkDelete); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if b, ok := r.s.bookmarks[id]; ok && b.UserID == userID {
		delete(r.s.bookmarks, id)
	}
	return nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	if err := r.s.begin(ctx, OpBookmarkList); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	var out []models.Bookmark
	for _, b := range r.s.bookmarks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *BookmarkRepository) DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error) {
	if err := r.s.begin(ctx, OpBookmarkDeleteByOpp); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()

	var n int64
	for id, b := range r.s.bookmarks {
		if b.OpportunityID == opportunityID {
			delete(r.s.bookmarks, id)
			n++
		}
	}
	return n, nil
}

// SessionRepository таблица shadow_sessions.
type SessionRepository struct{ s *Store }

func (r *SessionRepository) Create(ctx context.Context, sess *models.ShadowSession) error {
	if err := r.s.begin(ctx, OpSessionCreate); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	sess.ID = uuid.New()
	sess.CreatedAt = r.s.now()
	r.s.sessions[sess.ID] = *sess
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := r.s.begin(ctx, OpSessionDelete); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if sess, ok := r.s.sessions[id]; ok && sess.UserID == userID {
		delete(r.s.sessions, id)
	}
	return nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShadowSession, error) {
	if err := r.s.begin(ctx, OpSessionList); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	var out []models.ShadowSession
	for _, sess := range r.s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sortSessions(out)
	return out, nil
}

func (r *SessionRepository) ListByOpportunities(ctx context.Context, opportunityIDs []uuid.UUID) ([]models.ShadowSession, error) {
	if err := r.s.begin(ctx, OpSessionListByOpps); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	wanted := make(map[uuid.UUID]struct{}, len(opportunityIDs))
	for _, id := range opportunityIDs {
		wanted[id] = struct{}{}
	}
	var out []models.ShadowSession
	for _, sess := range r.s.sessions {
		if _, ok := wanted[sess.OpportunityID]; ok {
			out = append(out, sess)
		}
	}
	sortSessions(out)
	return out, nil
}

func (r *SessionRepository) DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error) {
	if err := r.s.begin(ctx, OpSessionDeleteByOpp); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()

	var n int64
	for id, sess := range r.s.sessions {
		if sess.OpportunityID == opportunityID {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func sortSessions(list []models.ShadowSession) {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
}

// UserRepository таблицы users и profiles.
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	if err := r.s.begin(ctx, OpUserCreate); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return common.ErrAlreadyExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.now()
	user.CreatedAt = now
	profile.UserID = user.ID
	profile.UpdatedAt = now
	r.s.users[user.ID] = *user
	r.s.profiles[user.ID] = *profile
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := r.s.begin(ctx, OpUserGet); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := r.s.begin(ctx, OpUserGet); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if err := r.s.begin(ctx, OpProfileGet); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

// DeletionRepository таблица opportunity_deletions.
type DeletionRepository struct{ s *Store }

func (r *DeletionRepository) Save(ctx context.Context, d *models.OpportunityDeletion) error {
	if err := r.s.begin(ctx, OpDeletionSave); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	now := r.s.now()
	if existing, ok := r.s.deletions[d.OpportunityID]; ok {
		d.CreatedAt = existing.CreatedAt
	} else {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	r.s.deletions[d.OpportunityID] = *d
	return nil
}

func (r *DeletionRepository) Get(ctx context.Context, opportunityID uuid.UUID) (*models.OpportunityDeletion, error) {
	if err := r.s.begin(ctx, OpDeletionGet); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	d, ok := r.s.deletions[opportunityID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &d, nil
}

func (r *DeletionRepository) ListPending(ctx context.Context) ([]models.OpportunityDeletion, error) {
	if err := r.s.begin(ctx, OpDeletionList); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	var out []models.OpportunityDeletion
	for _, d := range r.s.deletions {
		if !d.Done {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
