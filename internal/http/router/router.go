package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/career-compass/internal/config"
	"github.com/ignatzorin/career-compass/internal/http/handlers"
	"github.com/ignatzorin/career-compass/internal/http/middleware"
	"github.com/ignatzorin/career-compass/internal/service"
)

// Handlers набор HTTP хэндлеров приложения.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Opportunity *handlers.OpportunityHandler
	Engagement  *handlers.EngagementHandler
	Dashboard   *handlers.DashboardHandler
	Health      *handlers.HealthHandler
	LiveSearch  *handlers.LiveSearchHandler
	Profile     *handlers.ProfileHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	// Публичные маршруты: аноним допускается, токен учитывается, если есть.
	public := api.Group("")
	public.Use(middleware.OptionalAuth(tokenManager))
	{
		public.GET("/opportunities", h.Opportunity.Search)
		public.GET("/opportunities/:id", middleware.UUIDValidator("id"), h.Opportunity.Get)
		public.GET("/me/capabilities", h.Engagement.Capabilities)
		public.GET("/discovery/live", h.LiveSearch.Handle)
		public.GET("/users/:id/profile", middleware.UUIDValidator("id"), h.Profile.GetUserProfile)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/opportunities/mine", h.Opportunity.Mine)
		protected.POST("/opportunities", h.Opportunity.Create)
		protected.PUT("/opportunities/:id", middleware.UUIDValidator("id"), h.Opportunity.Update)
		protected.DELETE("/opportunities/:id", middleware.UUIDValidator("id"), h.Opportunity.Delete)

		protected.GET("/me", h.Profile.GetMe)
		protected.GET("/me/engagement", h.Engagement.State)
		protected.POST("/me/engagement/refresh", h.Engagement.Refresh)

		protected.GET("/bookmarks", h.Engagement.ListBookmarks)
		protected.POST("/bookmarks", h.Engagement.AddBookmark)
		protected.DELETE("/bookmarks/:id", middleware.UUIDValidator("id"), h.Engagement.RemoveBookmark)

		protected.GET("/sessions", h.Engagement.ListSessions)
		protected.POST("/sessions", h.Engagement.Schedule)
		protected.DELETE("/sessions/:id", middleware.UUIDValidator("id"), h.Engagement.Cancel)
		protected.POST("/sessions/:id/reschedule", middleware.UUIDValidator("id"), h.Engagement.Reschedule)

		protected.GET("/dashboard", h.Dashboard.Get)
	}

	return r
}
