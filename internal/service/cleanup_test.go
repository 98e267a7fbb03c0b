package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"esltrainer/internal/apperr"
	"esltrainer/internal/testutil"
)

func TestCleanupService_CleanupExpired(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		deleted       int64
		mockError     error
		expectedError bool
	}{
		{name: "successful cleanup", deleted: 3},
		{name: "nothing expired", deleted: 0},
		{name: "cleanup error", mockError: apperr.Storage("failed to delete expired items", errors.New("database error")), expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockVocabularyRepository)
			mockRepo.On("DeleteExpired", context.Background(), now).Return(tt.deleted, tt.mockError)

			service := NewCleanupService(mockRepo, testutil.NewTestLogger())
			service.now = func() time.Time { return now }

			n, err := service.CleanupExpired(context.Background())

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.deleted, n)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
