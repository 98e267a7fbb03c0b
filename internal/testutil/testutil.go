package testutil

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"esltrainer/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user whose password is "password123"
func NewTestUser(email string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	now := time.Now()
	return &domain.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Level:        domain.LevelBeginner,
		Preferences:  domain.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestWord creates a persisted word item
func NewTestWord(word, translation string) *domain.VocabularyItem {
	now := time.Now()
	return &domain.VocabularyItem{
		ID:          uuid.New(),
		Type:        domain.ItemWord,
		Word:        word,
		Translation: translation,
		Difficulty:  domain.DifficultyA1,
		Category:    "general",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestScenarioItem creates a persisted generated scenario
func NewTestScenarioItem(slug string, level domain.Level, words ...string) *domain.VocabularyItem {
	now := time.Now()
	expires := now.Add(time.Hour)
	content := domain.EmptyScenarioContent()
	content.Vocabulary["A1"] = words
	return &domain.VocabularyItem{
		ID:          uuid.New(),
		Type:        domain.ItemScenario,
		Title:       domain.TitleFromSlug(slug),
		Slug:        slug,
		Difficulty:  domain.Difficulty(level),
		Category:    "general",
		Content:     &content,
		CacheKey:    "scenario:" + slug + ":" + string(level),
		ExpiresAt:   &expires,
		AIGenerated: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
