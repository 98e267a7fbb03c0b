package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"esltrainer/internal/ai"
	"esltrainer/internal/apperr"
)

const maxContentText = 500

// ContentKind selects the prompt used for generated study notes
type ContentKind string

const (
	ContentWord     ContentKind = "word"
	ContentSentence ContentKind = "sentence"
)

const wordPrompt = `For the English word "%s", provide:
1. %s translation
2. Three natural example sentences using this word
3. Common collocations
4. Usage notes (if any)
Return ONLY a JSON object with these fields: translation, examples (array), collocations (array), usageNotes (string). Do not include markdown formatting, code blocks, or any other text.`

const sentencePrompt = `For the English sentence "%s", provide:
1. %s translation
2. Two similar example sentences
3. Grammar notes
4. Cultural context (if relevant)
Return ONLY a JSON object with these fields: translation, examples (array), grammarNotes (string), culturalNotes (string). Do not include markdown formatting, code blocks, or any other text.`

// ContentService relays word and sentence notes from the generative provider
type ContentService struct {
	provider ai.Provider
	language string
	logger   *zap.Logger
}

// NewContentService creates a content service translating into language.
// provider may be nil when no API key is configured.
func NewContentService(provider ai.Provider, language string, logger *zap.Logger) *ContentService {
	return &ContentService{provider: provider, language: language, logger: logger}
}

// ParseContentKind defaults anything but "word" to sentence
func ParseContentKind(s string) ContentKind {
	if ContentKind(strings.ToLower(strings.TrimSpace(s))) == ContentWord {
		return ContentWord
	}
	return ContentSentence
}

// Generate asks the provider for study notes on text. Responses that do not
// parse as a JSON object yield a placeholder with "placeholder": true.
func (s *ContentService) Generate(ctx context.Context, text string, kind ContentKind) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Text is required")
	}
	if len(text) > maxContentText {
		return nil, apperr.Validation(fmt.Sprintf("Text must be at most %d characters", maxContentText))
	}
	if s.provider == nil {
		return nil, apperr.Upstream("Content generation is not configured", nil)
	}

	prompt := fmt.Sprintf(sentencePrompt, text, s.language)
	if kind == ContentWord {
		prompt = fmt.Sprintf(wordPrompt, text, s.language)
	}

	raw, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Content generation failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}

	data, err := ai.ParseObject(raw)
	if err != nil {
		s.logger.Warn("Generated content could not be parsed, returning placeholder",
			zap.String("kind", string(kind)),
			zap.Int("response_bytes", len(raw)),
		)
		return placeholderContent(kind), nil
	}
	return data, nil
}

func placeholderContent(kind ContentKind) map[string]any {
	if kind == ContentWord {
		return map[string]any{
			"translation":  "",
			"examples":     []string{},
			"collocations": []string{},
			"usageNotes":   "",
			"placeholder":  true,
		}
	}
	return map[string]any{
		"translation":   "",
		"examples":      []string{},
		"grammarNotes":  "",
		"culturalNotes": "",
		"placeholder":   true,
	}
}
