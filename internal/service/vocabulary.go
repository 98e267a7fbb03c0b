package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
	"esltrainer/internal/repository"
)

const pageSize = 50

// ImportResult summarises a bulk word import
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// VocabularyService handles word and scenario item listings
type VocabularyService struct {
	vocabRepo repository.VocabularyRepository
	logger    *zap.Logger
}

// NewVocabularyService creates a new vocabulary service
func NewVocabularyService(vocabRepo repository.VocabularyRepository, logger *zap.Logger) *VocabularyService {
	return &VocabularyService{vocabRepo: vocabRepo, logger: logger}
}

// List returns one page of live items matching filter. page starts at 1.
func (s *VocabularyService) List(ctx context.Context, filter domain.VocabularyFilter, page int) ([]domain.VocabularyItem, error) {
	if filter.Type != "" && filter.Type != domain.ItemWord && filter.Type != domain.ItemScenario {
		return nil, apperr.Validation("invalid item type")
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperr.Validation("invalid category")
	}
	if filter.Difficulty != "" && !filter.Difficulty.IsScenarioLevel() {
		return nil, apperr.Validation("invalid difficulty level")
	}
	filter.Query = strings.TrimSpace(filter.Query)

	if page < 1 {
		page = 1
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	return s.vocabRepo.List(ctx, filter)
}

// Get returns a live item by id
func (s *VocabularyService) Get(ctx context.Context, id string) (*domain.VocabularyItem, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("Vocabulary item not found")
	}
	item, err := s.vocabRepo.GetByID(ctx, itemID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Vocabulary item not found")
	}
	return item, err
}

// Import validates and stores word items. Invalid rows are skipped and
// reported; a storage failure aborts the import.
func (s *VocabularyService) Import(ctx context.Context, items []domain.VocabularyItem) (*ImportResult, error) {
	res := &ImportResult{}
	for i := range items {
		item := items[i]
		item.Type = domain.ItemWord
		item.Word = strings.TrimSpace(item.Word)
		if item.Category == "" {
			item.Category = "general"
		}

		if err := item.Validate(); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("item %d (%q): %s", i+1, item.Word, apperr.MessageOf(err)))
			continue
		}

		err := s.vocabRepo.Create(ctx, &item)
		if apperr.Is(err, apperr.KindConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			s.logger.Error("Vocabulary import aborted", zap.Int("created", res.Created), zap.Error(err))
			return res, err
		}
		res.Created++
	}

	s.logger.Info("Vocabulary imported", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return res, nil
}

// SeedScenarios stores catalog scenarios as persisted items so they are
// searchable through List
func (s *VocabularyService) SeedScenarios(ctx context.Context, scenarios []domain.Scenario) (int, error) {
	n := 0
	for _, sc := range scenarios {
		content := sc.Data
		item := &domain.VocabularyItem{
			Type:        domain.ItemScenario,
			Title:       sc.Title,
			Slug:        sc.ID,
			Description: sc.Description,
			Category:    sc.Category,
			Difficulty:  sc.Difficulty,
			Content:     &content,
			CacheKey:    "catalog:" + sc.ID,
		}
		if err := s.vocabRepo.UpsertScenario(ctx, item); err != nil {
			return n, err
		}
		n++
	}
	s.logger.Info("Catalog scenarios seeded", zap.Int("count", n))
	return n, nil
}
