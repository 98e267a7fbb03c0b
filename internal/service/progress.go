package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
	"esltrainer/internal/repository"
)

// maxPracticeSeconds caps a single practice-time report at one day
const maxPracticeSeconds = 24 * 60 * 60

// ProgressService tracks mastery, scenario completions and streaks
type ProgressService struct {
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(userRepo repository.UserRepository, progressRepo repository.ProgressRepository, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// GetProgress returns the user's progress and stats
func (s *ProgressService) GetProgress(ctx context.Context, userID uuid.UUID) (*domain.ProgressReport, error) {
	return s.progressRepo.GetProgress(ctx, userID)
}

// UpdateVocabularyMastery adds delta to the word's score, clamped to [0, 100]
func (s *ProgressService) UpdateVocabularyMastery(ctx context.Context, userID uuid.UUID, word string, delta int) (int, error) {
	return s.applyDelta(ctx, userID, domain.MasteryVocabulary, word, delta)
}

// UpdatePhraseMastery adds delta to the phrase's score, clamped to [0, 100]
func (s *ProgressService) UpdatePhraseMastery(ctx context.Context, userID uuid.UUID, phrase string, delta int) (int, error) {
	return s.applyDelta(ctx, userID, domain.MasteryPhrase, phrase, delta)
}

// SetMastery overwrites an item's score with value, clamped to [0, 100]
func (s *ProgressService) SetMastery(ctx context.Context, userID uuid.UUID, kind domain.MasteryKind, item string, value int) (int, error) {
	item, err := validateItem(kind, item)
	if err != nil {
		return 0, err
	}
	return s.progressRepo.UpdateMastery(ctx, userID, kind, item, func(int) int {
		return domain.ApplyMasteryDelta(0, value)
	})
}

func (s *ProgressService) applyDelta(ctx context.Context, userID uuid.UUID, kind domain.MasteryKind, item string, delta int) (int, error) {
	item, err := validateItem(kind, item)
	if err != nil {
		return 0, err
	}
	score, err := s.progressRepo.UpdateMastery(ctx, userID, kind, item, func(current int) int {
		return domain.ApplyMasteryDelta(current, delta)
	})
	if err != nil {
		if apperr.Is(err, apperr.KindStorage) {
			s.logger.Error("Failed to update mastery",
				zap.String("user_id", userID.String()),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
		return 0, err
	}
	return score, nil
}

// UpdateScenarioProgress records a scenario completion and advances the streak
func (s *ProgressService) UpdateScenarioProgress(ctx context.Context, userID uuid.UUID, scenarioID string, score int) (*domain.ProgressReport, error) {
	scenarioID = strings.TrimSpace(scenarioID)
	if scenarioID == "" {
		return nil, apperr.Validation("scenario id is required")
	}
	if err := domain.ValidateScore(score); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	now := s.now()
	rec := domain.CompletedScenario{ScenarioID: scenarioID, CompletedAt: now, Score: score}

	stats, err := s.progressRepo.RecordCompletion(ctx, userID, rec, now)
	if err != nil {
		if apperr.Is(err, apperr.KindStorage) {
			s.logger.Error("Failed to record scenario completion",
				zap.String("user_id", userID.String()),
				zap.String("scenario_id", scenarioID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("Scenario completed",
		zap.String("user_id", userID.String()),
		zap.String("scenario_id", scenarioID),
		zap.Int("score", score),
		zap.Int("streak_days", stats.StreakDays),
	)

	return s.progressRepo.GetProgress(ctx, userID)
}

// AddPracticeTime adds seconds to the user's total practice time
func (s *ProgressService) AddPracticeTime(ctx context.Context, userID uuid.UUID, seconds int) (*domain.Stats, error) {
	if seconds <= 0 || seconds > maxPracticeSeconds {
		return nil, apperr.Validation(fmt.Sprintf("seconds must be between 1 and %d", maxPracticeSeconds))
	}
	return s.userRepo.AddPracticeTime(ctx, userID, seconds)
}

func validateItem(kind domain.MasteryKind, item string) (string, error) {
	if !kind.Valid() {
		return "", apperr.Validation("invalid mastery kind")
	}
	item = strings.TrimSpace(item)
	if item == "" {
		return "", apperr.Validation(string(kind) + " is required")
	}
	return item, nil
}
