package domain

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"esltrainer/internal/apperr"
)

// ItemType discriminates word entries from scenario entries
type ItemType string

const (
	ItemWord     ItemType = "word"
	ItemScenario ItemType = "scenario"
)

// Difficulty is a CEFR band for words, or a level for scenarios
type Difficulty string

const (
	DifficultyA1 Difficulty = "A1"
	DifficultyA2 Difficulty = "A2"
	DifficultyB1 Difficulty = "B1"
	DifficultyB2 Difficulty = "B2"
	DifficultyC1 Difficulty = "C1"
	DifficultyC2 Difficulty = "C2"
)

// IsCEFR reports whether d is one of A1..C2
func (d Difficulty) IsCEFR() bool {
	switch d {
	case DifficultyA1, DifficultyA2, DifficultyB1, DifficultyB2, DifficultyC1, DifficultyC2:
		return true
	}
	return false
}

// IsScenarioLevel reports whether d is a valid scenario difficulty
func (d Difficulty) IsScenarioLevel() bool {
	if d.IsCEFR() {
		return true
	}
	_, err := ParseLevel(string(d))
	return err == nil && d != ""
}

// Category groups vocabulary and scenarios by theme
type Category string

var categories = map[Category]struct{}{
	"daily_life": {}, "work": {}, "education": {}, "relationships": {}, "health": {},
	"shopping": {}, "travel": {}, "technology": {}, "entertainment": {}, "nature": {},
	"emotions": {}, "sports": {}, "food": {}, "culture": {}, "business": {},
	"emergency": {}, "transportation": {}, "general": {}, "social": {}, "housing": {},
	"fitness": {}, "celebrations": {}, "parent_school": {}, "basic_communication": {},
	"grocery_shopping": {}, "retail_shopping": {}, "communication_challenges": {},
	"neighbor_relations": {},
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// DialogueLine is one turn of a dialogue
type DialogueLine struct {
	Role string `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}

// Dialogue is an example conversation for a scenario
type Dialogue struct {
	Situation    string         `json:"situation,omitempty" yaml:"situation,omitempty"`
	Conversation []DialogueLine `json:"conversation" yaml:"conversation"`
}

// Exercise is a practice task attached to a scenario
type Exercise struct {
	Type         string   `json:"type" yaml:"type"`
	Question     string   `json:"question" yaml:"question"`
	Answer       string   `json:"answer" yaml:"answer"`
	Alternatives []string `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	Explanation  string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// ScenarioContent is the learnable material of a scenario.
// Vocabulary is keyed by CEFR band, phrases by group (basic, situational, cultural).
type ScenarioContent struct {
	Vocabulary    map[string][]string `json:"vocabulary" yaml:"vocabulary"`
	Phrases       map[string][]string `json:"phrases" yaml:"phrases"`
	Dialogues     []Dialogue          `json:"dialogues" yaml:"dialogues"`
	Exercises     []Exercise          `json:"exercises,omitempty" yaml:"exercises,omitempty"`
	GrammarPoints []string            `json:"grammarPoints,omitempty" yaml:"grammarPoints,omitempty"`
	CulturalNotes string              `json:"culturalNotes,omitempty" yaml:"culturalNotes,omitempty"`
}

// EmptyScenarioContent returns content with every collection initialised
func EmptyScenarioContent() ScenarioContent {
	return ScenarioContent{
		Vocabulary:    map[string][]string{},
		Phrases:       map[string][]string{},
		Dialogues:     []Dialogue{},
		GrammarPoints: []string{},
	}
}

// Words flattens vocabulary across bands, in band order
func (c ScenarioContent) Words() []string {
	return flatten(c.Vocabulary, []string{"A1", "A2", "B1", "B2", "C1", "C2"})
}

// AllPhrases flattens phrases across groups, in group order
func (c ScenarioContent) AllPhrases() []string {
	return flatten(c.Phrases, []string{"basic", "situational", "intermediate", "cultural"})
}

func flatten(m map[string][]string, order []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, key := range order {
		out = append(out, m[key]...)
		seen[key] = true
	}
	var rest []string
	for key := range m {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		out = append(out, m[key]...)
	}
	return out
}

// Scenario is a themed bundle as served to clients
type Scenario struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Difficulty  Difficulty      `json:"difficulty"`
	Level       Level           `json:"level,omitempty"`
	Data        ScenarioContent `json:"data"`
	Generated   bool            `json:"generated"`
	Placeholder bool            `json:"placeholder,omitempty"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
}

// VocabularyItem is a persisted word or scenario entry
type VocabularyItem struct {
	ID          uuid.UUID        `json:"id"`
	Type        ItemType         `json:"type"`
	Word        string           `json:"word,omitempty"`
	Translation string           `json:"translation,omitempty"`
	Definition  string           `json:"definition,omitempty"`
	Examples    []string         `json:"examples,omitempty"`
	Category    Category         `json:"category,omitempty"`
	Difficulty  Difficulty       `json:"difficulty"`
	Title       string           `json:"title,omitempty"`
	Slug        string           `json:"slug,omitempty"`
	Description string           `json:"description,omitempty"`
	Content     *ScenarioContent `json:"content,omitempty"`
	CacheKey    string           `json:"-"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	AIGenerated bool             `json:"aiGenerated"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Validate checks required fields per item type
func (v *VocabularyItem) Validate() error {
	switch v.Type {
	case ItemWord:
		if strings.TrimSpace(v.Word) == "" {
			return apperr.Validation("word is required")
		}
		if strings.TrimSpace(v.Definition) == "" && strings.TrimSpace(v.Translation) == "" {
			return apperr.Validation("definition or translation is required")
		}
		if !v.Difficulty.IsCEFR() {
			return apperr.Validation("invalid difficulty level")
		}
	case ItemScenario:
		if strings.TrimSpace(v.Title) == "" {
			return apperr.Validation("title is required")
		}
		if !v.Difficulty.IsScenarioLevel() {
			return apperr.Validation("invalid difficulty level")
		}
	default:
		return apperr.Validation("invalid item type")
	}
	if v.Category != "" && !v.Category.Valid() {
		return apperr.Validation("invalid category")
	}
	return nil
}

// Expired reports whether the item's TTL has passed at now
func (v *VocabularyItem) Expired(now time.Time) bool {
	return v.ExpiresAt != nil && !v.ExpiresAt.After(now)
}

// VocabularyFilter narrows item listings
type VocabularyFilter struct {
	Type       ItemType
	Category   Category
	Difficulty Difficulty
	Query      string
	Limit      int
	Offset     int
}

// Slugify derives a URL-safe identifier from a scenario title:
// lower-case, whitespace runs become '-', other punctuation is dropped.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingDash = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash {
				b.WriteByte('-')
				pendingDash = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleFromSlug turns "coffee-shop" into "Coffee Shop"
func TitleFromSlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
