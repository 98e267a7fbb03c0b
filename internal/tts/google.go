package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"

	"esltrainer/internal/upstream"
)

// VoiceConfig selects the provider voice
type VoiceConfig struct {
	LanguageCode string
	Name         string
}

// GoogleSynthesizer calls the Google Cloud Text-to-Speech API
type GoogleSynthesizer struct {
	svc    *texttospeech.Service
	voice  VoiceConfig
	policy upstream.Policy
	logger *zap.Logger
}

// NewGoogleSynthesizer creates a synthesizer. Client options select credentials
// (typically option.WithAPIKey) or, in tests, a local endpoint.
func NewGoogleSynthesizer(ctx context.Context, voice VoiceConfig, policy upstream.Policy, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSynthesizer, error) {
	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return &GoogleSynthesizer{svc: svc, voice: voice, policy: policy, logger: logger}, nil
}

// Synthesize returns MP3 audio for text
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.voice.LanguageCode,
			Name:         g.voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}

	audio, err := upstream.Call(ctx, g.policy, func(ctx context.Context) ([]byte, error) {
		resp, err := g.svc.Text.Synthesize(req).Context(ctx).Do()
		if err != nil {
			return nil, classifyGoogleError(err)
		}
		data, err := base64.StdEncoding.DecodeString(resp.AudioContent)
		if err != nil {
			return nil, upstream.Permanent(fmt.Errorf("%w: malformed audio content: %v", ErrSynthesisUnavailable, err))
		}
		return data, nil
	})
	if err != nil {
		g.logger.Warn("Speech synthesis failed", zap.Int("text_len", len(text)), zap.Error(err))
		if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrSynthesisUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSynthesisUnavailable, err)
	}
	return audio, nil
}

// classifyGoogleError decides which provider failures are worth retrying
func classifyGoogleError(err error) error {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return err
	}
	switch {
	case gErr.Code == http.StatusBadRequest:
		return upstream.Permanent(fmt.Errorf("%w: %s", ErrInvalidInput, gErr.Message))
	case gErr.Code == http.StatusTooManyRequests:
		return upstream.Permanent(fmt.Errorf("%w: %s", ErrQuotaExceeded, gErr.Message))
	case gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden:
		return upstream.Permanent(fmt.Errorf("%w: %s", ErrSynthesisUnavailable, gErr.Message))
	}
	return fmt.Errorf("%w: %s", ErrSynthesisUnavailable, gErr.Message)
}
