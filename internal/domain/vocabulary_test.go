package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"esltrainer/internal/apperr"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Coffee Shop", "coffee-shop"},
		{"Restaurant", "restaurant"},
		{"  Public   Transport ", "public-transport"},
		{"Doctor's Office", "doctors-office"},
		{"Job Interview - Part 2", "job-interview-part-2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.title))
		})
	}
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "Coffee Shop", TitleFromSlug("coffee-shop"))
	assert.Equal(t, "Airport", TitleFromSlug("airport"))
}

func TestVocabularyItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    VocabularyItem
		wantErr bool
	}{
		{
			name:    "valid word",
			item:    VocabularyItem{Type: ItemWord, Word: "coffee", Definition: "a hot drink", Difficulty: DifficultyA1},
			wantErr: false,
		},
		{
			name:    "word with translation only",
			item:    VocabularyItem{Type: ItemWord, Word: "coffee", Translation: "kahve", Difficulty: DifficultyA1},
			wantErr: false,
		},
		{
			name:    "word missing",
			item:    VocabularyItem{Type: ItemWord, Definition: "a hot drink", Difficulty: DifficultyA1},
			wantErr: true,
		},
		{
			name:    "word with scenario level",
			item:    VocabularyItem{Type: ItemWord, Word: "coffee", Definition: "a hot drink", Difficulty: "beginner"},
			wantErr: true,
		},
		{
			name:    "valid scenario",
			item:    VocabularyItem{Type: ItemScenario, Title: "Coffee Shop", Difficulty: "beginner", Category: "daily_life"},
			wantErr: false,
		},
		{
			name:    "scenario with unknown category",
			item:    VocabularyItem{Type: ItemScenario, Title: "Coffee Shop", Difficulty: DifficultyA1, Category: "space"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			item:    VocabularyItem{Type: "idiom", Word: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVocabularyItem_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	assert.False(t, (&VocabularyItem{}).Expired(now))
	assert.True(t, (&VocabularyItem{ExpiresAt: &past}).Expired(now))
	assert.False(t, (&VocabularyItem{ExpiresAt: &future}).Expired(now))
}

func TestScenarioContent_Words(t *testing.T) {
	c := ScenarioContent{
		Vocabulary: map[string][]string{
			"A2": {"order", "menu"},
			"A1": {"coffee", "tea"},
		},
		Phrases: map[string][]string{
			"cultural": {"Room for cream?"},
			"basic":    {"Can I have...?"},
		},
	}

	assert.Equal(t, []string{"coffee", "tea", "order", "menu"}, c.Words())
	assert.Equal(t, []string{"Can I have...?", "Room for cream?"}, c.AllPhrases())
	assert.Empty(t, EmptyScenarioContent().Words())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	assert.NoError(t, err)
	assert.Equal(t, LevelBeginner, level)

	level, err = ParseLevel("advanced")
	assert.NoError(t, err)
	assert.Equal(t, LevelAdvanced, level)

	_, err = ParseLevel("expert")
	assert.Error(t, err)
}
