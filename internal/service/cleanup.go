package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"esltrainer/internal/repository"
)

// CleanupService removes generated content whose TTL has passed
type CleanupService struct {
	vocabRepo repository.VocabularyRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(vocabRepo repository.VocabularyRepository, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		vocabRepo: vocabRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// CleanupExpired deletes expired generated items
func (s *CleanupService) CleanupExpired(ctx context.Context) (int64, error) {
	s.logger.Info("Starting cleanup of expired generated content")

	n, err := s.vocabRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to cleanup expired content", zap.Error(err))
		return 0, err
	}

	s.logger.Info("Cleanup completed successfully", zap.Int64("deleted", n))
	return n, nil
}
