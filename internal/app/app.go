// Package app собирает сервисы и HTTP слой поверх выбранного хранилища.
package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ignatzorin/career-compass/internal/config"
	"github.com/ignatzorin/career-compass/internal/engagement"
	"github.com/ignatzorin/career-compass/internal/http/handlers"
	"github.com/ignatzorin/career-compass/internal/http/router"
	"github.com/ignatzorin/career-compass/internal/repository"
	"github.com/ignatzorin/career-compass/internal/repository/memory"
	"github.com/ignatzorin/career-compass/internal/repository/mongostore"
	"github.com/ignatzorin/career-compass/internal/service"
	"github.com/ignatzorin/career-compass/internal/ws"
)

// Repositories реализации хранилища, от которых зависят сервисы.
type Repositories struct {
	Opportunities service.OpportunityRepository
	Bookmarks     service.BookmarkRepository
	Sessions      service.SessionRepository
	Deletions     service.DeletionRepository
	Users         service.AuthRepository
	// Bulk пакетная вставка для seed, nil если хранилище её не поддерживает.
	Bulk service.OpportunityBulkInserter
}

func PostgresRepositories(db *sqlx.DB) Repositories {
	opps := repository.NewOpportunityRepository(db)
	return Repositories{
		Opportunities: opps,
		Bookmarks:     repository.NewBookmarkRepository(db),
		Sessions:      repository.NewSessionRepository(db),
		Deletions:     repository.NewDeletionRepository(db),
		Users:         repository.NewUserRepository(db),
		Bulk:          opps,
	}
}

func MongoRepositories(db *mongo.Database) Repositories {
	store := mongostore.NewStore(db)
	return Repositories{
		Opportunities: store.Opportunities(),
		Bookmarks:     store.Bookmarks(),
		Sessions:      store.Sessions(),
		Deletions:     store.Deletions(),
		Users:         store.Users(),
		Bulk:          store.Opportunities(),
	}
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Opportunities: store.Opportunities(),
		Bookmarks:     store.Bookmarks(),
		Sessions:      store.Sessions(),
		Deletions:     store.Deletions(),
		Users:         store.Users(),
	}
}

// App готовые сервисы и роутер.
type App struct {
	Tokens        *service.TokenManager
	Cache         *service.CacheService
	Registry      *engagement.Registry
	Auth          *service.AuthService
	Opportunities *service.OpportunityService
	Engagement    *service.EngagementService
	Cascade       *service.CascadeService
	Dashboard     *service.DashboardService
	Seed          *service.SeedService
	Hub           *ws.Hub
	Router        *gin.Engine
}

// New связывает сервисы. checks попадают в /health.
func New(cfg *config.Config, repos Repositories, checks map[string]handlers.PingFunc) *App {
	timeout := cfg.GatewayTimeout

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	cache := service.NewCacheService()
	registry := engagement.NewRegistry(service.NewStateSource(repos.Bookmarks, repos.Sessions, timeout))

	a := &App{
		Tokens:        tokens,
		Cache:         cache,
		Registry:      registry,
		Auth:          service.NewAuthService(repos.Users, tokens, timeout),
		Opportunities: service.NewOpportunityService(repos.Opportunities, cache, cfg.SearchCacheTTL, timeout),
		Engagement:    service.NewEngagementService(repos.Opportunities, repos.Bookmarks, repos.Sessions, registry, timeout),
		Cascade:       service.NewCascadeService(repos.Opportunities, repos.Bookmarks, repos.Sessions, repos.Deletions, registry, cache, timeout),
	}
	a.Dashboard = service.NewDashboardService(a.Opportunities, repos.Bookmarks, repos.Sessions, timeout)
	a.Seed = service.NewSeedService(a.Auth, a.Opportunities, repos.Bulk)

	a.Hub = ws.NewHub()

	if checks == nil {
		checks = map[string]handlers.PingFunc{}
	}
	a.Router = router.SetupRouter(cfg, router.Handlers{
		Auth:        handlers.NewAuthHandler(a.Auth),
		Opportunity: handlers.NewOpportunityHandler(a.Opportunities, a.Cascade),
		Engagement:  handlers.NewEngagementHandler(a.Engagement, a.Dashboard),
		Dashboard:   handlers.NewDashboardHandler(a.Dashboard),
		Health:      handlers.NewHealthHandler(checks),
		Profile:     handlers.NewProfileHandler(a.Auth),
		LiveSearch:  handlers.NewLiveSearchHandler(a.Hub, a.Opportunities, cfg.AllowedOrigins, cfg.SearchDebounce, timeout),
	}, tokens)

	return a
}

// Close закрывает соединения поиска и останавливает фоновые задачи.
func (a *App) Close() {
	a.Hub.CloseAll()
	a.Cache.Close()
}
