package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
)

// dashboardPreviewSize количество записей в превью дашборда.
const dashboardPreviewSize = 3

// SessionView сессия вместе с возможностью.
type SessionView struct {
	Session     models.ShadowSession `json:"session"`
	Opportunity models.Opportunity   `json:"opportunity"`
}

// BookmarkView закладка вместе с возможностью.
type BookmarkView struct {
	Bookmark    models.Bookmark    `json:"bookmark"`
	Opportunity models.Opportunity `json:"opportunity"`
}

// SeekerDashboard дашборд соискателя.
type SeekerDashboard struct {
	BookmarkCount    int            `json:"bookmark_count"`
	UpcomingCount    int            `json:"upcoming_count"`
	PastCount        int            `json:"past_count"`
	UpcomingSessions []SessionView  `json:"upcoming_sessions"`
	RecentBookmarks  []BookmarkView `json:"recent_bookmarks"`
}

// HostDashboard дашборд хоста.
type HostDashboard struct {
	PostedCount         int                  `json:"posted_count"`
	UpcomingCount       int                  `json:"upcoming_count"`
	PastCount           int                  `json:"past_count"`
	RecentOpportunities []models.Opportunity `json:"recent_opportunities"`
	IncomingSessions    []SessionView        `json:"incoming_sessions"`
}

// Dashboard итоговый набор данных для зрителя.
type Dashboard struct {
	Capabilities access.Capabilities `json:"capabilities"`
	Seeker       *SeekerDashboard    `json:"seeker,omitempty"`
	Host         *HostDashboard      `json:"host,omitempty"`
}

// DashboardService собирает представления для зрителя в зависимости от роли.
type DashboardService struct {
	opps      *OpportunityService
	bookmarks BookmarkRepository
	sessions  SessionRepository
	gw        gateway
	now       func() time.Time
}

func NewDashboardService(opps *OpportunityService, bookmarks BookmarkRepository, sessions SessionRepository, timeout time.Duration) *DashboardService {
	return &DashboardService{
		opps:      opps,
		bookmarks: bookmarks,
		sessions:  sessions,
		gw:        newGateway(timeout),
		now:       time.Now,
	}
}

// Dashboard возвращает дашборд соискателя или хоста.
func (s *DashboardService) Dashboard(ctx context.Context, viewer access.Viewer) (*Dashboard, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}

	caps := access.For(viewer)
	out := &Dashboard{Capabilities: caps}

	if caps.Can(access.ActionManageDashboard) {
		host, err := s.hostDashboard(ctx, viewer)
		if err != nil {
			return nil, err
		}
		out.Host = host
		return out, nil
	}

	seeker, err := s.seekerDashboard(ctx, viewer)
	if err != nil {
		return nil, err
	}
	out.Seeker = seeker
	return out, nil
}

func (s *DashboardService) seekerDashboard(ctx context.Context, viewer access.Viewer) (*SeekerDashboard, error) {
	var (
		bookmarks []BookmarkView
		sessions  []SessionView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookmarks, err = s.Bookmarks(gctx, viewer)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = s.Sessions(gctx, viewer, models.TabAll)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	upcoming, past := models.SplitByDateFunc(sessions, sessionOpportunity, s.now())
	return &SeekerDashboard{
		BookmarkCount:    len(bookmarks),
		UpcomingCount:    len(upcoming),
		PastCount:        len(past),
		UpcomingSessions: preview(upcoming),
		RecentBookmarks:  preview(bookmarks),
	}, nil
}

func (s *DashboardService) hostDashboard(ctx context.Context, viewer access.Viewer) (*HostDashboard, error) {
	opps, err := s.opps.ListForHost(ctx, viewer, models.TabAll)
	if err != nil {
		return nil, err
	}
	incoming, err := s.incoming(ctx, opps)
	if err != nil {
		return nil, err
	}

	upcoming, past := models.SplitByDate(opps, s.now())
	recent := append([]models.Opportunity(nil), opps...)
	models.SortNewestFirst(recent)

	return &HostDashboard{
		PostedCount:         len(opps),
		UpcomingCount:       len(upcoming),
		PastCount:           len(past),
		RecentOpportunities: preview(recent),
		IncomingSessions:    incoming,
	}, nil
}

// Bookmarks закладки соискателя, новые первыми, по одной на возможность.
// Закладки на удалённые возможности не показываются.
func (s *DashboardService) Bookmarks(ctx context.Context, viewer access.Viewer) ([]BookmarkView, error) {
	if err := access.Require(viewer, access.ActionBookmarkDashboard); err != nil {
		return nil, err
	}

	var rows []models.Bookmark
	if err := s.gw.read(ctx, "список закладок", func(ctx context.Context) error {
		var err error
		rows, err = s.bookmarks.ListByUser(ctx, viewer.ID)
		return err
	}); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(rows))
	unique := rows[:0:0]
	ids := make([]uuid.UUID, 0, len(rows))
	for _, b := range rows {
		if _, ok := seen[b.OpportunityID]; ok {
			continue
		}
		seen[b.OpportunityID] = struct{}{}
		unique = append(unique, b)
		ids = append(ids, b.OpportunityID)
	}

	opps, err := s.opps.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]BookmarkView, 0, len(unique))
	for _, b := range unique {
		opp, ok := opps[b.OpportunityID]
		if !ok {
			logger.Log.WithField("bookmark_id", b.ID).Debug("dashboard: закладка без возможности пропущена")
			continue
		}
		views = append(views, BookmarkView{Bookmark: b, Opportunity: opp})
	}
	return views, nil
}

// Sessions сессии зрителя для вкладки all | upcoming | past. Соискатель видит свои записи,
// хост видит записи на свои возможности. Черновики без даты считаются предстоящими.
func (s *DashboardService) Sessions(ctx context.Context, viewer access.Viewer, tab string) ([]SessionView, error) {
	if !viewer.Authenticated() {
		return nil, apperror.ErrUnauthenticated
	}
	switch tab {
	case "", models.TabAll, models.TabUpcoming, models.TabPast:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "вкладка должна быть all, upcoming или past")
	}

	var views []SessionView
	if viewer.IsHost() {
		opps, err := s.opps.ListForHost(ctx, viewer, models.TabAll)
		if err != nil {
			return nil, err
		}
		if views, err = s.incoming(ctx, opps); err != nil {
			return nil, err
		}
	} else {
		if err := access.Require(viewer, access.ActionSessionsDashboard); err != nil {
			return nil, err
		}
		var err error
		if views, err = s.own(ctx, viewer); err != nil {
			return nil, err
		}
	}

	upcoming, past := models.SplitByDateFunc(views, sessionOpportunity, s.now())
	switch tab {
	case models.TabUpcoming:
		return nonNil(upcoming), nil
	case models.TabPast:
		return nonNil(past), nil
	default:
		return nonNil(append(upcoming, past...)), nil
	}
}

func (s *DashboardService) own(ctx context.Context, viewer access.Viewer) ([]SessionView, error) {
	var rows []models.ShadowSession
	if err := s.gw.read(ctx, "список сессий", func(ctx context.Context) error {
		var err error
		rows, err = s.sessions.ListByUser(ctx, viewer.ID)
		return err
	}); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.OpportunityID)
	}
	opps, err := s.opps.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return joinSessions(rows, opps), nil
}

func (s *DashboardService) incoming(ctx context.Context, owned []models.Opportunity) ([]SessionView, error) {
	if len(owned) == 0 {
		return []SessionView{}, nil
	}
	byID := make(map[uuid.UUID]models.Opportunity, len(owned))
	ids := make([]uuid.UUID, 0, len(owned))
	for _, o := range owned {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	var rows []models.ShadowSession
	if err := s.gw.read(ctx, "входящие сессии", func(ctx context.Context) error {
		var err error
		rows, err = s.sessions.ListByOpportunities(ctx, ids)
		return err
	}); err != nil {
		return nil, err
	}
	return joinSessions(rows, byID), nil
}

func joinSessions(rows []models.ShadowSession, opps map[uuid.UUID]models.Opportunity) []SessionView {
	views := make([]SessionView, 0, len(rows))
	for _, r := range rows {
		opp, ok := opps[r.OpportunityID]
		if !ok {
			continue
		}
		views = append(views, SessionView{Session: r, Opportunity: opp})
	}
	return views
}

func sessionOpportunity(v SessionView) models.Opportunity {
	return v.Opportunity
}

func preview[T any](items []T) []T {
	if len(items) > dashboardPreviewSize {
		items = items[:dashboardPreviewSize]
	}
	return nonNil(items)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
