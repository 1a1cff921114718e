package app

import (
	"net/http"
	"strings"

	"github.com/ak/griddle/internal/app/middleware"
	"github.com/ak/griddle/internal/domain/services"
	"github.com/ak/griddle/internal/infrastructure/config"
	"github.com/ak/griddle/internal/infrastructure/database"
	"github.com/ak/griddle/internal/infrastructure/repositories"
	"github.com/ak/griddle/internal/pkg/logger"
	"github.com/ak/griddle/internal/pkg/timer"
	"github.com/gin-gonic/gin"
)

// Application holds all application dependencies and services
type Application struct {
	config   *config.Config
	logger   *logger.Logger
	mongodb  *database.MongoDB
	repos    *repositories.Provider
	engine   services.EngineService
	recipes  services.RecipeService
	history  services.HistoryService
	stats    services.StatisticsService
	sessions services.SessionService
	router   *gin.Engine
}

// New creates a new Application instance. mongodb may be nil when the
// provider is memory-backed; the readiness probe then skips the ping.
func New(cfg *config.Config, log *logger.Logger, mongodb *database.MongoDB, repos *repositories.Provider) (*Application, error) {
	noise := services.RandNoise(cfg.Engine.RandomSeed)
	if cfg.Engine.DisableJitter {
		noise = services.NoNoise
	}

	engine := services.NewEngineService(repos.Recipe, repos.Recommendation, repos.History, noise,
		cfg.Engine.MinCookTime, cfg.Engine.MaxCookTime)
	stats := services.NewStatisticsService(repos.History, repos.Statistics)
	history := services.NewHistoryService(repos.History, repos.Recipe, engine, stats)
	recipes := services.NewRecipeService(repos.Recipe, repos.History, repos.Recommendation, repos.Preference, repos.Statistics, engine)
	newClock := func() services.Clock { return timer.New(cfg.Session.TickInterval) }
	sessions := services.NewSessionService(repos.Recipe, engine, history, newClock, cfg.Session.MaxActive)

	app := &Application{
		config:   cfg,
		logger:   log,
		mongodb:  mongodb,
		repos:    repos,
		engine:   engine,
		recipes:  recipes,
		history:  history,
		stats:    stats,
		sessions: sessions,
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	app.router = gin.New()

	// Add middleware
	app.router.Use(gin.Recovery())
	app.router.Use(middleware.LoggerMiddleware(log.Logger))
	app.router.Use(app.corsMiddleware())

	// Setup routes
	app.setupRoutes()

	return app, nil
}

// Router returns the HTTP handler
func (a *Application) Router() http.Handler {
	return a.router
}

// setupRoutes configures all application routes
func (a *Application) setupRoutes() {
	// Health check endpoints
	a.router.GET("/health", a.healthCheck)
	a.router.GET("/ready", a.readinessCheck)

	v1 := a.router.Group("/api/v1")
	{
		v1.GET("/info", a.apiInfo)

		// Recipe management
		recipes := v1.Group("/recipes")
		{
			recipes.GET("", a.listRecipes)
			recipes.POST("", a.createRecipe)
			recipes.GET("/current", a.getCurrentRecipe)
			recipes.PUT("/current", a.setCurrentRecipe)
			recipes.GET("/:id", a.getRecipe)
			recipes.PUT("/:id", a.updateRecipe)
			recipes.DELETE("/:id", a.deleteRecipe)
			recipes.POST("/:id/reset", a.resetRecommendations)
			recipes.GET("/:id/recommendations", a.listRecommendations)
			recipes.GET("/:id/recommendations/:temperature", a.getRecommendation)
		}

		// Cook history
		history := v1.Group("/history")
		{
			history.GET("", a.listHistory)
			history.POST("", a.recordCook)
			history.DELETE("", a.clearHistory)
			history.DELETE("/:id", a.deleteHistoryRecord)
		}

		// Statistics
		v1.GET("/statistics", a.getStatistics)

		// Cook sessions
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", a.startSession)
			sessions.GET("/:id", a.getSession)
			sessions.POST("/:id/flip", a.flipSession)
			sessions.POST("/:id/finish", a.finishSession)
			sessions.POST("/:id/rate", a.rateSession)
			sessions.DELETE("/:id", a.cancelSession)
		}

		// Preferences
		prefs := v1.Group("/preferences")
		{
			prefs.GET("/:key", a.getPreference)
			prefs.PUT("/:key", a.setPreference)
		}
	}
}

// corsMiddleware handles CORS headers per configuration
func (a *Application) corsMiddleware() gin.HandlerFunc {
	allowedOrigins := a.config.CORS.AllowedOrigins
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	methods := strings.Join(a.config.CORS.AllowedMethods, ", ")
	headers := strings.Join(a.config.CORS.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range allowedOrigins {
				if allowed == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
