package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"esltrainer/internal/domain"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) LinkTelegram(ctx context.Context, id uuid.UUID, telegramID int64) error {
	args := m.Called(ctx, id, telegramID)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs domain.Preferences) error {
	args := m.Called(ctx, id, prefs)
	return args.Error(0)
}

func (m *MockUserRepository) AddPracticeTime(ctx context.Context, id uuid.UUID, seconds int) (*domain.Stats, error) {
	args := m.Called(ctx, id, seconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}

// MockProgressRepository is a mock for ProgressRepository.
// UpdateMastery runs the apply callback against the score given as the
// "current" return argument, so tests observe the real clamping.
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) GetProgress(ctx context.Context, userID uuid.UUID) (*domain.ProgressReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProgressReport), args.Error(1)
}

func (m *MockProgressRepository) UpdateMastery(ctx context.Context, userID uuid.UUID, kind domain.MasteryKind, item string, apply func(current int) int) (int, error) {
	args := m.Called(ctx, userID, kind, item)
	if err := args.Error(1); err != nil {
		return 0, err
	}
	return apply(args.Int(0)), nil
}

func (m *MockProgressRepository) RecordCompletion(ctx context.Context, userID uuid.UUID, rec domain.CompletedScenario, now time.Time) (*domain.Stats, error) {
	args := m.Called(ctx, userID, rec, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}

// MockVocabularyRepository is a mock for VocabularyRepository
type MockVocabularyRepository struct {
	mock.Mock
}

func (m *MockVocabularyRepository) Create(ctx context.Context, item *domain.VocabularyItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockVocabularyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VocabularyItem), args.Error(1)
}

func (m *MockVocabularyRepository) GetByCacheKey(ctx context.Context, key string) (*domain.VocabularyItem, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VocabularyItem), args.Error(1)
}

func (m *MockVocabularyRepository) List(ctx context.Context, filter domain.VocabularyFilter) ([]domain.VocabularyItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VocabularyItem), args.Error(1)
}

func (m *MockVocabularyRepository) UpsertScenario(ctx context.Context, item *domain.VocabularyItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockVocabularyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockProvider is a mock for the generative content provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockSpeechCache is a mock for the TTS cache
type MockSpeechCache struct {
	mock.Mock
}

func (m *MockSpeechCache) GetOrSynthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
