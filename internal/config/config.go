package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env       string
	HTTPAddr  string
	ClientURL string
	CORS      []string
	JWTSecret string
	JWTTTL    time.Duration
	BotToken  string
	Database  DatabaseConfig
	Redis     RedisConfig
	Google    GoogleConfig
	TTS       TTSConfig
	Upstream  UpstreamConfig

	TranslationLanguage string
	GeneratedTTL        time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// RedisConfig holds the optional response cache settings
type RedisConfig struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// GoogleConfig holds API key and OAuth client settings
type GoogleConfig struct {
	APIKey       string
	GeminiModel  string
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// TTSConfig holds text-to-speech settings
type TTSConfig struct {
	CacheDir     string
	Voice        string
	LanguageCode string
}

// UpstreamConfig bounds calls to external providers
type UpstreamConfig struct {
	Timeout    time.Duration
	MaxRetries uint
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		Env:       getEnv("APP_ENV", "production"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":5001"),
		ClientURL: getEnv("CLIENT_URL", "http://localhost:3001"),
		CORS:      splitList(getEnv("CORS_ORIGINS", "http://localhost:3001")),
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),
		BotToken:  os.Getenv("BOT_TOKEN"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "esltrainer"),
			User:     getEnv("DB_USER", "esltrainer"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			TTL:      getDuration("CACHE_TTL", 5*time.Minute),
		},
		Google: GoogleConfig{
			APIKey:       os.Getenv("GOOGLE_API_KEY"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-pro"),
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			CallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:5001/api/auth/google/callback"),
		},
		TTS: TTSConfig{
			CacheDir:     getEnv("TTS_CACHE_DIR", "cache/tts"),
			Voice:        getEnv("TTS_VOICE", "en-US-Standard-C"),
			LanguageCode: getEnv("TTS_LANGUAGE", "en-US"),
		},
		Upstream: UpstreamConfig{
			Timeout:    getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
			MaxRetries: uint(getInt("UPSTREAM_RETRIES", 3)),
		},
		TranslationLanguage: getEnv("TRANSLATION_LANGUAGE", "Turkish"),
		GeneratedTTL:        getDuration("GENERATED_TTL", 7*24*time.Hour),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Upstream.MaxRetries == 0 {
		return nil, fmt.Errorf("UPSTREAM_RETRIES must be at least 1")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// IsProduction reports whether internal error details must be hidden from clients
func (c *Config) IsProduction() bool {
	return c.Env != "development"
}

// OAuthEnabled reports whether Google sign-in is configured
func (c *Config) OAuthEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 0 {
		return defaultValue
	}
	return i
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
