package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"esltrainer/internal/domain"
)

// UserRepository defines user data operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	LinkTelegram(ctx context.Context, id uuid.UUID, telegramID int64) error
	UpdatePreferences(ctx context.Context, id uuid.UUID, prefs domain.Preferences) error
	AddPracticeTime(ctx context.Context, id uuid.UUID, seconds int) (*domain.Stats, error)
}

// ProgressRepository defines mastery and scenario progress operations.
// Every mutation is applied atomically per user.
type ProgressRepository interface {
	GetProgress(ctx context.Context, userID uuid.UUID) (*domain.ProgressReport, error)
	UpdateMastery(ctx context.Context, userID uuid.UUID, kind domain.MasteryKind, item string, apply func(current int) int) (int, error)
	RecordCompletion(ctx context.Context, userID uuid.UUID, rec domain.CompletedScenario, now time.Time) (*domain.Stats, error)
}

// VocabularyRepository defines word and scenario item operations
type VocabularyRepository interface {
	Create(ctx context.Context, item *domain.VocabularyItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error)
	GetByCacheKey(ctx context.Context, key string) (*domain.VocabularyItem, error)
	List(ctx context.Context, filter domain.VocabularyFilter) ([]domain.VocabularyItem, error)
	UpsertScenario(ctx context.Context, item *domain.VocabularyItem) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
