package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"esltrainer/internal/cache"
	"esltrainer/internal/middleware"
	"esltrainer/internal/service"
)

// Config wires services into the HTTP layer. OAuth, Cache and Health are optional.
type Config struct {
	Auth       *service.AuthService
	OAuth      *service.OAuthService
	Progress   *service.ProgressService
	Scenarios  *service.ScenarioService
	Vocabulary *service.VocabularyService
	Content    *service.ContentService
	Speech     *service.SpeechService

	Cache      cache.Store
	CacheTTL   time.Duration
	Health     func(ctx context.Context) error
	ClientURL  string
	Origins    []string
	Production bool
	Logger     *zap.Logger
}

// Handler serves the JSON API
type Handler struct {
	auth       *service.AuthService
	oauth      *service.OAuthService
	progress   *service.ProgressService
	scenarios  *service.ScenarioService
	vocabulary *service.VocabularyService
	content    *service.ContentService
	speech     *service.SpeechService

	health     func(ctx context.Context) error
	clientURL  string
	production bool
	started    time.Time
	logger     *zap.Logger
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(cfg Config) *gin.Engine {
	h := &Handler{
		auth:       cfg.Auth,
		oauth:      cfg.OAuth,
		progress:   cfg.Progress,
		scenarios:  cfg.Scenarios,
		vocabulary: cfg.Vocabulary,
		content:    cfg.Content,
		speech:     cfg.Speech,
		health:     cfg.Health,
		clientURL:  cfg.ClientURL,
		production: cfg.Production,
		started:    time.Now(),
		logger:     cfg.Logger,
	}

	r := gin.New()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.CORS(cfg.Origins))

	api := r.Group("/api")
	api.GET("/health", h.Health)

	// Auth (public)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/google", h.GoogleAuth)
		authGroup.GET("/google/callback", h.GoogleCallback)
	}

	requireAuth := middleware.RequireAuth(cfg.Auth)

	// Auth (protected)
	authGroup.GET("/me", requireAuth, h.Me)
	authGroup.PUT("/preferences", requireAuth, h.UpdatePreferences)

	progress := api.Group("/progress", requireAuth)
	{
		progress.GET("", h.GetProgress)
		progress.POST("/vocabulary/*word", h.UpdateVocabularyProgress)
		progress.POST("/phrase/*phrase", h.UpdatePhraseProgress)
		progress.POST("/scenario/:scenarioId", h.UpdateScenarioProgress)
		progress.POST("/practice-time", h.AddPracticeTime)
	}

	respCache := middleware.ResponseCache(cfg.Cache, cfg.CacheTTL, cfg.Logger)

	vocab := api.Group("/vocabulary", requireAuth)
	{
		vocab.GET("/scenarios", respCache, h.ListScenarios)
		vocab.GET("/scenarios/:id", respCache, h.GetScenario)
		vocab.GET("/scenarios/:id/vocabulary", respCache, h.GetScenarioVocabulary)
		vocab.GET("/scenarios/:id/phrases", respCache, h.GetScenarioPhrases)
		vocab.GET("/items", h.ListItems)
		vocab.GET("/item/:id", h.GetItem)
		vocab.POST("/progress/:id", h.UpdateItemProgress)
		vocab.POST("/tts", h.TextToSpeech)
		vocab.POST("/generate", h.Generate)
	}

	return r
}
