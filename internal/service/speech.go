package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"esltrainer/internal/apperr"
	"esltrainer/internal/tts"
)

// SpeechCache returns cached or freshly synthesized audio for text
type SpeechCache interface {
	GetOrSynthesize(ctx context.Context, text string) ([]byte, error)
}

// SpeechService serves MP3 audio for words and phrases
type SpeechService struct {
	cache  SpeechCache
	logger *zap.Logger
}

// NewSpeechService creates a speech service. cache may be nil when no
// synthesis provider is configured.
func NewSpeechService(cache SpeechCache, logger *zap.Logger) *SpeechService {
	return &SpeechService{cache: cache, logger: logger}
}

// Speak returns MP3 audio for text
func (s *SpeechService) Speak(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, apperr.Validation("Text is required")
	}
	if s.cache == nil {
		return nil, apperr.Upstream("Speech synthesis is not configured", tts.ErrSynthesisUnavailable)
	}

	audio, err := s.cache.GetOrSynthesize(ctx, text)
	if err != nil {
		classified := tts.Classify(err)
		switch {
		case errors.Is(err, tts.ErrCacheWriteFailed):
			s.logger.Error("Failed to write speech cache", zap.Error(err))
		case !errors.Is(err, tts.ErrInvalidInput):
			s.logger.Warn("Speech synthesis failed", zap.Int("text_bytes", len(text)), zap.Error(err))
		}
		return nil, classified
	}
	return audio, nil
}
