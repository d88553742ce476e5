package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/repository/common"
	"github.com/ignatzorin/career-compass/internal/validation"
)

// OpportunityInput данные для создания возможности.
type OpportunityInput struct {
	Title        string
	Description  string
	Format       string
	Duration     string
	ScheduledAt  *time.Time
	Location     string
	Department   string
	Requirements string
}

// OpportunityService поиск и управление возможностями хостов.
type OpportunityService struct {
	repo     OpportunityRepository
	cache    *CacheService
	cacheTTL time.Duration
	gw       gateway
	now      func() time.Time
}

// NewOpportunityService создаёт сервис. cache может быть nil, тогда поиск не кэшируется.
func NewOpportunityService(repo OpportunityRepository, cache *CacheService, cacheTTL, timeout time.Duration) *OpportunityService {
	return &OpportunityService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		gw:       newGateway(timeout),
		now:      time.Now,
	}
}

// Search выполняет поиск по фильтру, новые возможности первыми.
// Реализует discovery.Fetcher.
func (s *OpportunityService) Search(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error) {
	load := func(ctx context.Context) (interface{}, error) {
		var opps []models.Opportunity
		err := s.gw.read(ctx, "поиск возможностей", func(ctx context.Context) error {
			var err error
			opps, err = s.repo.List(ctx, filter)
			return err
		})
		if opps == nil && err == nil {
			opps = []models.Opportunity{}
		}
		return opps, err
	}

	if s.cache == nil || s.cacheTTL <= 0 {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]models.Opportunity), nil
	}

	v, err := s.cache.GetOrSet(ctx, ListingCacheKey(discovery.FilterKey(filter)), s.cacheTTL, load)
	if err != nil {
		return nil, err
	}
	// копия, чтобы вызывающий не испортил закэшированный срез
	cached := v.([]models.Opportunity)
	out := make([]models.Opportunity, len(cached))
	copy(out, cached)
	return out, nil
}

// Discover проверяет запрос и выполняет поиск.
func (s *OpportunityService) Discover(ctx context.Context, q discovery.Query) ([]models.Opportunity, error) {
	if err := q.Validate(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return s.Search(ctx, q.Filter())
}

// Get возвращает возможность по идентификатору.
func (s *OpportunityService) Get(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	var opp *models.Opportunity
	err := s.gw.read(ctx, "чтение возможности", func(ctx context.Context) error {
		var err error
		opp, err = s.repo.GetByID(ctx, id)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrOpportunityNotFound
	}
	if err != nil {
		return nil, err
	}
	return opp, nil
}

// Create публикует новую возможность хоста.
func (s *OpportunityService) Create(ctx context.Context, viewer access.Viewer, in OpportunityInput) (*models.Opportunity, error) {
	if err := access.Require(viewer, access.ActionCreateOpportunity); err != nil {
		return nil, err
	}

	opp := &models.Opportunity{
		HostID:       viewer.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Format:       in.Format,
		Duration:     in.Duration,
		ScheduledAt:  in.ScheduledAt,
		Location:     strings.TrimSpace(in.Location),
		Department:   strings.TrimSpace(in.Department),
		Requirements: strings.TrimSpace(in.Requirements),
	}
	if err := validation.ValidateOpportunity(opp); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if err := s.gw.write(ctx, "создание возможности", func(ctx context.Context) error {
		return s.repo.Create(ctx, opp)
	}); err != nil {
		return nil, err
	}

	s.invalidate()
	logger.Log.WithFields(logrus.Fields{
		"host_id":        viewer.ID,
		"opportunity_id": opp.ID,
	}).Info("opportunity: создана")
	return opp, nil
}

// Update применяет изменения. Менять возможность может только хост-владелец.
func (s *OpportunityService) Update(ctx context.Context, viewer access.Viewer, id uuid.UUID, patch models.OpportunityPatch) (*models.Opportunity, error) {
	if err := access.Require(viewer, access.ActionEditOpportunity); err != nil {
		return nil, err
	}

	opp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanEdit(viewer, *opp); err != nil {
		return nil, err
	}

	patch.Apply(opp)
	opp.Title = strings.TrimSpace(opp.Title)
	if err := validation.ValidateOpportunity(opp); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	err = s.gw.write(ctx, "обновление возможности", func(ctx context.Context) error {
		return s.repo.Update(ctx, opp, viewer.ID)
	})
	if errors.Is(err, common.ErrNotFound) {
		// удалена между чтением и записью
		return nil, apperror.ErrOpportunityNotFound
	}
	if err != nil {
		return nil, err
	}

	s.invalidate()
	return opp, nil
}

// ListForHost возвращает возможности хоста для вкладки all | upcoming | past.
func (s *OpportunityService) ListForHost(ctx context.Context, viewer access.Viewer, tab string) ([]models.Opportunity, error) {
	if err := access.Require(viewer, access.ActionManageDashboard); err != nil {
		return nil, err
	}
	switch tab {
	case "", models.TabAll, models.TabUpcoming, models.TabPast:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "вкладка должна быть all, upcoming или past")
	}

	hostID := viewer.ID
	opps, err := s.listUncached(ctx, models.OpportunityFilter{HostID: &hostID})
	if err != nil {
		return nil, err
	}
	return models.ByTab(opps, tab, s.now()), nil
}

// ByIDs возвращает возможности по идентификаторам в виде карты.
func (s *OpportunityService) ByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Opportunity, error) {
	out := make(map[uuid.UUID]models.Opportunity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opps, err := s.listUncached(ctx, models.OpportunityFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, o := range opps {
		out[o.ID] = o
	}
	return out, nil
}

func (s *OpportunityService) listUncached(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error) {
	var opps []models.Opportunity
	err := s.gw.read(ctx, "выборка возможностей", func(ctx context.Context) error {
		var err error
		opps, err = s.repo.List(ctx, filter)
		return err
	})
	return opps, err
}

func (s *OpportunityService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidateListings()
	}
}
