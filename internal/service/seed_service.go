package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/career-compass/internal/access"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/validation"
)

// OpportunityBulkInserter вставляет много возможностей за один запрос.
// Реализуется postgres и mongo репозиториями; память заполняется по одной записи.
type OpportunityBulkInserter interface {
	BulkCreate(ctx context.Context, opps []models.Opportunity) (int, error)
}

// SeedOptions параметры генерации демо данных.
type SeedOptions struct {
	Hosts                int
	OpportunitiesPerHost int
	Password             string
	// Seed делает генерацию воспроизводимой. Ноль означает текущее время.
	Seed int64
}

// SeedResult итог генерации.
type SeedResult struct {
	Hosts         []models.User `json:"hosts"`
	Opportunities int           `json:"opportunities"`
	Bulk          bool          `json:"bulk"`
}

// SeedService генерирует демо хостов и их возможности.
type SeedService struct {
	auth *AuthService
	opps *OpportunityService
	bulk OpportunityBulkInserter
	now  func() time.Time
}

// NewSeedService создаёт сервис генерации. bulk может быть nil.
func NewSeedService(auth *AuthService, opps *OpportunityService, bulk OpportunityBulkInserter) *SeedService {
	return &SeedService{auth: auth, opps: opps, bulk: bulk, now: time.Now}
}

var (
	seedFirstNames = []string{
		"Александр", "Дмитрий", "Сергей", "Андрей", "Илья", "Михаил", "Павел",
		"Анна", "Мария", "Елена", "Ольга", "Наталья", "Екатерина", "Дарья",
	}
	seedLastNames = []string{
		"Иванов", "Петров", "Смирнов", "Соколов", "Лебедев", "Новиков", "Морозов", "Волков",
	}
	seedTitles = []string{
		"День в команде бэкенда",
		"Наблюдение за работой продакт-менеджера",
		"Смена в отделении неотложной помощи",
		"Неделя в архитектурном бюро",
		"Один день с UX исследователем",
		"Выездная смена инженера-электрика",
		"Редакция новостного портала изнутри",
		"Утро в школьном классе",
		"Работа аналитика данных в банке",
		"Как устроена лаборатория биотехнологий",
	}
	seedDepartments = []string{
		"Разработка", "Продукт", "Медицина", "Дизайн", "Инженерия", "Медиа", "Образование", "Аналитика",
	}
	seedLocations = []string{
		"Москва", "Санкт-Петербург", "Новосибирск", "Екатеринбург", "Казань", "Нижний Новгород",
	}
	seedFormats   = []string{models.FormatInPerson, models.FormatVirtual, models.FormatHybrid}
	seedDurations = []string{models.DurationHour, models.DurationHalfDay, models.DurationFullDay, models.DurationMultiDay}
)

// Seed создаёт хостов и возможности. Повторный запуск переиспользует уже
// зарегистрированных хостов с тем же email.
func (s *SeedService) Seed(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	if opts.Hosts <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "количество хостов должно быть положительным")
	}
	if opts.OpportunitiesPerHost < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "количество возможностей не может быть отрицательным")
	}
	if opts.Password == "" {
		opts.Password = "Password123"
	}
	seed := opts.Seed
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1)))

	result := &SeedResult{Bulk: s.bulk != nil}
	var generated []models.Opportunity

	for i := 0; i < opts.Hosts; i++ {
		host, err := s.ensureHost(ctx, i+1, opts.Password, rng)
		if err != nil {
			return nil, fmt.Errorf("seed service: хост %d: %w", i+1, err)
		}
		result.Hosts = append(result.Hosts, *host)

		for j := 0; j < opts.OpportunitiesPerHost; j++ {
			generated = append(generated, s.generateOpportunity(host.ID, rng))
		}
	}

	created, err := s.storeOpportunities(ctx, generated)
	if err != nil {
		return nil, fmt.Errorf("seed service: возможности: %w", err)
	}
	result.Opportunities = created

	logger.Log.WithFields(logrus.Fields{
		"hosts":         len(result.Hosts),
		"opportunities": created,
		"bulk":          result.Bulk,
	}).Info("seed: демо данные созданы")
	return result, nil
}

func (s *SeedService) ensureHost(ctx context.Context, n int, password string, rng *rand.Rand) (*models.User, error) {
	email := fmt.Sprintf("host%d@career-compass.dev", n)
	name := seedFirstNames[rng.IntN(len(seedFirstNames))] + " " + seedLastNames[rng.IntN(len(seedLastNames))]

	res, err := s.auth.Register(ctx, RegisterInput{
		Email:       email,
		Password:    password,
		Role:        models.RoleHost,
		DisplayName: name,
	})
	if err == nil {
		return res.User, nil
	}

	if !apperror.IsAlreadyExists(err) {
		return nil, err
	}
	res, err = s.auth.Login(ctx, LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%s уже существует с другим паролем: %w", email, err)
	}
	if res.User.Role != models.RoleHost {
		return nil, fmt.Errorf("%s зарегистрирован не как хост", email)
	}
	return res.User, nil
}

func (s *SeedService) generateOpportunity(hostID uuid.UUID, rng *rand.Rand) models.Opportunity {
	opp := models.Opportunity{
		HostID:       hostID,
		Title:        seedTitles[rng.IntN(len(seedTitles))],
		Format:       seedFormats[rng.IntN(len(seedFormats))],
		Duration:     seedDurations[rng.IntN(len(seedDurations))],
		Location:     seedLocations[rng.IntN(len(seedLocations))],
		Department:   seedDepartments[rng.IntN(len(seedDepartments))],
		Description:  "Демонстрационная возможность, созданная командой seed.",
		Requirements: "Интерес к профессии",
	}
	opp.Description = fmt.Sprintf("%s Отдел: %s.", opp.Description, opp.Department)

	// Каждая пятая остаётся черновиком, остальные разбросаны на ±30 дней.
	if rng.IntN(5) != 0 {
		offset := time.Duration(rng.IntN(60)-30) * 24 * time.Hour
		at := s.now().Add(offset).Truncate(time.Hour)
		opp.ScheduledAt = &at
	}
	return opp
}

func (s *SeedService) storeOpportunities(ctx context.Context, opps []models.Opportunity) (int, error) {
	if len(opps) == 0 {
		return 0, nil
	}
	for i := range opps {
		if err := validation.ValidateOpportunity(&opps[i]); err != nil {
			return 0, err
		}
	}

	if s.bulk != nil {
		var created int
		err := s.opps.gw.write(ctx, "пакетная вставка возможностей", func(ctx context.Context) error {
			n, err := s.bulk.BulkCreate(ctx, opps)
			created = n
			return err
		})
		if err != nil {
			return 0, err
		}
		s.opps.invalidate()
		return created, nil
	}

	for _, opp := range opps {
		viewer := access.Viewer{ID: opp.HostID, Role: models.RoleHost}
		if _, err := s.opps.Create(ctx, viewer, OpportunityInput{
			Title:        opp.Title,
			Description:  opp.Description,
			Format:       opp.Format,
			Duration:     opp.Duration,
			ScheduledAt:  opp.ScheduledAt,
			Location:     opp.Location,
			Department:   opp.Department,
			Requirements: opp.Requirements,
		}); err != nil {
			return 0, err
		}
	}
	return len(opps), nil
}
