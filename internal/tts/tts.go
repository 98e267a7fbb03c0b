package tts

import (
	"context"
	"errors"

	"esltrainer/internal/apperr"
)

var (
	ErrInvalidInput         = errors.New("invalid synthesis input")
	ErrQuotaExceeded        = errors.New("synthesis quota exceeded")
	ErrSynthesisUnavailable = errors.New("speech synthesis unavailable")
	ErrCacheWriteFailed     = errors.New("tts cache write failed")
)

// MaxTextBytes is the largest input accepted by the synthesis provider
const MaxTextBytes = 5000

// Synthesizer turns text into encoded audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Classify maps a tts error onto the application error taxonomy
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperr.New(apperr.KindValidation, "Text is required and must be at most 5000 bytes", err)
	case errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrSynthesisUnavailable):
		return apperr.Upstream("Speech synthesis is unavailable", err)
	case errors.Is(err, ErrCacheWriteFailed):
		return apperr.Storage("Failed to store synthesized audio", err)
	}
	return err
}
