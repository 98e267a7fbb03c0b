// Package ai talks to the generative content provider and tolerates the
// loosely formatted JSON it returns.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"esltrainer/internal/apperr"
	"esltrainer/internal/upstream"
)

// Provider generates free-form text from a prompt
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini calls the Generative Language API
type Gemini struct {
	svc    *generativelanguage.Service
	model  string
	policy upstream.Policy
	logger *zap.Logger
}

// NewGemini creates a provider for model, e.g. "gemini-pro"
func NewGemini(ctx context.Context, model string, policy upstream.Policy, logger *zap.Logger, opts ...option.ClientOption) (*Gemini, error) {
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative language client: %w", err)
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &Gemini{svc: svc, model: model, policy: policy, logger: logger}, nil
}

// Generate returns the text of the first candidate
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
	}

	text, err := upstream.Call(ctx, g.policy, func(ctx context.Context) (string, error) {
		resp, err := g.svc.Models.GenerateContent(g.model, req).Context(ctx).Do()
		if err != nil {
			return "", classifyGoogleError(err)
		}
		return firstCandidateText(resp), nil
	})
	if err != nil {
		g.logger.Warn("Content generation failed", zap.String("model", g.model), zap.Error(err))
		if apperr.KindOf(err) == apperr.KindUpstreamTimeout || apperr.KindOf(err) == apperr.KindValidation {
			return "", err
		}
		return "", apperr.Upstream("Content generation is unavailable", err)
	}
	return text, nil
}

func firstCandidateText(resp *generativelanguage.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func classifyGoogleError(err error) error {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return err
	}
	switch gErr.Code {
	case http.StatusBadRequest:
		return upstream.Permanent(apperr.New(apperr.KindValidation, "Prompt was rejected by the provider", err))
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests:
		return upstream.Permanent(err)
	}
	return err
}
