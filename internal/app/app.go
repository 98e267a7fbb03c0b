package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"esltrainer/internal/ai"
	"esltrainer/internal/catalog"
	"esltrainer/internal/config"
	"esltrainer/internal/repository/postgres"
	"esltrainer/internal/service"
	"esltrainer/internal/tts"
	"esltrainer/internal/upstream"
)

// MigrationsDir is where the binaries look for schema migrations
const MigrationsDir = "file://migrations"

// App holds the stores and services shared by the binaries
type App struct {
	DB     *sql.DB
	Config *config.Config

	Auth       *service.AuthService
	OAuth      *service.OAuthService
	Progress   *service.ProgressService
	Scenarios  *service.ScenarioService
	Vocabulary *service.VocabularyService
	Content    *service.ContentService
	Speech     *service.SpeechService
	Cleanup    *service.CleanupService
}

// NewLogger returns a development logger for APP_ENV=development, production otherwise
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New connects to the database, applies migrations and builds all services.
// Google providers are wired only when an API key is configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := postgres.Connect(cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if err := postgres.RunMigrations(db, MigrationsDir, logger); err != nil {
		db.Close()
		return nil, err
	}

	cat, err := catalog.Load()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load scenario catalog: %w", err)
	}
	logger.Info("Scenario catalog loaded", zap.Int("scenarios", cat.Len()), zap.Int("version", cat.Version()))

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	progressRepo := postgres.NewProgressRepo(db)
	vocabRepo := postgres.NewVocabularyRepo(db)

	policy := upstream.Policy{
		Timeout:         cfg.Upstream.Timeout,
		MaxTries:        cfg.Upstream.MaxRetries,
		InitialInterval: upstream.DefaultPolicy.InitialInterval,
	}

	// Interfaces stay nil unless the provider is built
	var provider ai.Provider
	var speechCache service.SpeechCache
	if cfg.Google.APIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.Google.GeminiModel, policy, logger, option.WithAPIKey(cfg.Google.APIKey))
		if err != nil {
			db.Close()
			return nil, err
		}
		provider = gemini

		synth, err := tts.NewGoogleSynthesizer(ctx, tts.VoiceConfig{
			LanguageCode: cfg.TTS.LanguageCode,
			Name:         cfg.TTS.Voice,
		}, policy, logger, option.WithAPIKey(cfg.Google.APIKey))
		if err != nil {
			db.Close()
			return nil, err
		}
		audioCache, err := tts.NewCache(cfg.TTS.CacheDir, synth, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		speechCache = audioCache
		logger.Info("Google providers enabled", zap.String("model", cfg.Google.GeminiModel))
	} else {
		logger.Warn("GOOGLE_API_KEY is not set, content generation and speech are disabled")
	}

	// Initialize services
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	a := &App{
		DB:         db,
		Config:     cfg,
		Auth:       service.NewAuthService(userRepo, tokens, logger),
		Progress:   service.NewProgressService(userRepo, progressRepo, logger),
		Scenarios:  service.NewScenarioService(cat, vocabRepo, provider, cfg.GeneratedTTL, logger),
		Vocabulary: service.NewVocabularyService(vocabRepo, logger),
		Content:    service.NewContentService(provider, cfg.TranslationLanguage, logger),
		Speech:     service.NewSpeechService(speechCache, logger),
		Cleanup:    service.NewCleanupService(vocabRepo, logger),
	}
	if cfg.OAuthEnabled() {
		exchanger := service.NewGoogleOAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
		a.OAuth = service.NewOAuthService(userRepo, tokens, exchanger, logger)
	}

	return a, nil
}

// Close releases the database pool
func (a *App) Close() error {
	return a.DB.Close()
}
