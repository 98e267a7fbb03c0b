package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"esltrainer/internal/ai"
	"esltrainer/internal/apperr"
	"esltrainer/internal/catalog"
	"esltrainer/internal/domain"
	"esltrainer/internal/repository"
)

const scenarioPrompt = `Generate an ESL learning scenario for the theme "%s" at %s level.
Include:
- 10 relevant vocabulary words grouped by CEFR level
- 5 common phrases used in this scenario
- 3 example dialogues
- Grammar points to focus on
Respond with a single JSON object of this shape and nothing else:
{"description": "...", "vocabulary": {"A1": ["..."], "A2": ["..."]}, "phrases": {"basic": ["..."], "situational": ["..."], "cultural": ["..."]}, "dialogues": [{"situation": "...", "conversation": [{"role": "...", "text": "..."}]}], "grammarPoints": ["..."]}`

// maxSlugLen bounds slugs accepted for lookup and generation
const maxSlugLen = 100

// ScenarioService resolves scenario slugs to catalog, persisted or generated content
type ScenarioService struct {
	catalog   *catalog.Catalog
	vocabRepo repository.VocabularyRepository
	provider  ai.Provider
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
	group     singleflight.Group
}

// NewScenarioService creates a resolver. provider may be nil, in which case
// slugs outside the catalog and the store resolve to NotFound.
func NewScenarioService(cat *catalog.Catalog, vocabRepo repository.VocabularyRepository, provider ai.Provider, ttl time.Duration, logger *zap.Logger) *ScenarioService {
	return &ScenarioService{
		catalog:   cat,
		vocabRepo: vocabRepo,
		provider:  provider,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the built-in scenarios
func (s *ScenarioService) List() []domain.Scenario {
	return s.catalog.All()
}

// Title returns the display title for slug
func (s *ScenarioService) Title(slug string) string {
	if sc, ok := s.catalog.Lookup(slug); ok {
		return sc.Title
	}
	return domain.TitleFromSlug(slug)
}

// ScenarioCacheKey is the store key of generated content for slug at level
func ScenarioCacheKey(slug string, level domain.Level) string {
	return "scenario:" + slug + ":" + string(level)
}

// Get resolves slug: catalog first, then a live generated entry, then generation
func (s *ScenarioService) Get(ctx context.Context, slug, level string) (*domain.Scenario, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apperr.Validation("scenario id is required")
	}
	if len(slug) > maxSlugLen || domain.Slugify(slug) != slug {
		return nil, apperr.Validation("invalid scenario id")
	}
	lvl, err := domain.ParseLevel(level)
	if err != nil {
		return nil, apperr.Validation("invalid level")
	}

	if sc, ok := s.catalog.Lookup(slug); ok {
		return &sc, nil
	}

	key := ScenarioCacheKey(slug, lvl)
	item, err := s.vocabRepo.GetByCacheKey(ctx, key)
	if err == nil && item.Content != nil {
		return scenarioFromItem(item, lvl), nil
	}
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	if s.provider == nil {
		return nil, apperr.NotFound("Scenario not found")
	}

	// The shared call outlives any single waiter; provider attempts carry their own timeout.
	genCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.generate(genCtx, slug, lvl, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		sc := *res.Val.(*domain.Scenario)
		return &sc, nil
	}
}

// Vocabulary returns the scenario's words grouped by CEFR band
func (s *ScenarioService) Vocabulary(ctx context.Context, slug, level string) (map[string][]string, error) {
	sc, err := s.Get(ctx, slug, level)
	if err != nil {
		return nil, err
	}
	return sc.Data.Vocabulary, nil
}

// Phrases returns the scenario's phrases grouped by kind
func (s *ScenarioService) Phrases(ctx context.Context, slug, level string) (map[string][]string, error) {
	sc, err := s.Get(ctx, slug, level)
	if err != nil {
		return nil, err
	}
	return sc.Data.Phrases, nil
}

func (s *ScenarioService) generate(ctx context.Context, slug string, level domain.Level, key string) (*domain.Scenario, error) {
	title := domain.TitleFromSlug(slug)
	text, err := s.provider.Generate(ctx, fmt.Sprintf(scenarioPrompt, title, level))
	if err != nil {
		return nil, err
	}

	content, description, ok := parseGeneratedScenario(text)
	if !ok {
		s.logger.Warn("Generated scenario could not be parsed, returning placeholder",
			zap.String("slug", slug),
			zap.String("level", string(level)),
		)
		return placeholderScenario(slug, level), nil
	}
	if description == "" {
		description = fmt.Sprintf("Practice %s vocabulary and phrases", strings.ToLower(title))
	}

	expires := s.now().Add(s.ttl)
	item := &domain.VocabularyItem{
		Type:        domain.ItemScenario,
		Title:       title,
		Slug:        slug,
		Description: description,
		Category:    "general",
		Difficulty:  domain.Difficulty(level),
		Content:     &content,
		CacheKey:    key,
		ExpiresAt:   &expires,
		AIGenerated: true,
	}
	if err := s.vocabRepo.UpsertScenario(ctx, item); err != nil {
		// the content is still usable for this request
		s.logger.Error("Failed to persist generated scenario", zap.String("cache_key", key), zap.Error(err))
	} else {
		s.logger.Info("Generated scenario stored", zap.String("cache_key", key), zap.Time("expires_at", expires))
	}

	return scenarioFromItem(item, level), nil
}

func scenarioFromItem(item *domain.VocabularyItem, level domain.Level) *domain.Scenario {
	content := domain.EmptyScenarioContent()
	if item.Content != nil {
		content = *item.Content
	}
	return &domain.Scenario{
		ID:          item.Slug,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Difficulty:  item.Difficulty,
		Level:       level,
		Data:        content,
		Generated:   item.AIGenerated,
		ExpiresAt:   item.ExpiresAt,
	}
}

func placeholderScenario(slug string, level domain.Level) *domain.Scenario {
	title := domain.TitleFromSlug(slug)
	return &domain.Scenario{
		ID:          slug,
		Title:       title,
		Description: fmt.Sprintf("Practice %s vocabulary and phrases", strings.ToLower(title)),
		Category:    "general",
		Difficulty:  domain.Difficulty(level),
		Level:       level,
		Data:        domain.EmptyScenarioContent(),
		Generated:   true,
		Placeholder: true,
	}
}

type generatedScenario struct {
	Description   string          `json:"description"`
	Vocabulary    json.RawMessage `json:"vocabulary"`
	Phrases       json.RawMessage `json:"phrases"`
	Dialogues     json.RawMessage `json:"dialogues"`
	GrammarPoints json.RawMessage `json:"grammarPoints"`
	CulturalNotes string          `json:"culturalNotes"`
}

// parseGeneratedScenario accepts the requested shape and the common
// deviations models produce: flat lists instead of groups, objects instead of strings.
func parseGeneratedScenario(text string) (domain.ScenarioContent, string, bool) {
	var g generatedScenario
	if err := ai.Decode(text, &g); err != nil {
		return domain.ScenarioContent{}, "", false
	}

	content := domain.EmptyScenarioContent()
	content.Vocabulary = stringGroups(g.Vocabulary, "A1", "word")
	content.Phrases = stringGroups(g.Phrases, "basic", "phrase")
	content.GrammarPoints = stringList(g.GrammarPoints, "point")
	content.CulturalNotes = g.CulturalNotes
	if len(g.Dialogues) > 0 {
		var dialogues []domain.Dialogue
		if json.Unmarshal(g.Dialogues, &dialogues) == nil {
			content.Dialogues = dialogues
		}
	}

	if len(content.Words()) == 0 && len(content.AllPhrases()) == 0 {
		return domain.ScenarioContent{}, "", false
	}
	return content, strings.TrimSpace(g.Description), true
}

func stringGroups(raw json.RawMessage, defaultGroup, field string) map[string][]string {
	out := map[string][]string{}
	if len(raw) == 0 {
		return out
	}

	var groups map[string]json.RawMessage
	if json.Unmarshal(raw, &groups) == nil {
		for k, v := range groups {
			if list := stringList(v, field); len(list) > 0 {
				out[k] = list
			}
		}
		return out
	}

	if list := stringList(raw, field); len(list) > 0 {
		out[defaultGroup] = list
	}
	return out
}

func stringList(raw json.RawMessage, field string) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var plain []string
	if json.Unmarshal(raw, &plain) == nil {
		return compact(plain)
	}

	var objects []map[string]any
	if json.Unmarshal(raw, &objects) == nil {
		out := make([]string, 0, len(objects))
		for _, o := range objects {
			for _, k := range []string{field, "text", "word", "phrase", "name"} {
				if s, ok := o[k].(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
					break
				}
			}
		}
		return out
	}
	return []string{}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
