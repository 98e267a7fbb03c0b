// Package catalog holds the built-in scenario table shipped with the binary.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"esltrainer/internal/domain"
)

//go:embed scenarios.yaml
var scenariosYAML []byte

type entry struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Category    domain.Category   `yaml:"category"`
	Difficulty  domain.Difficulty `yaml:"difficulty"`

	domain.ScenarioContent `yaml:",inline"`
}

type document struct {
	Version   int     `yaml:"version"`
	Scenarios []entry `yaml:"scenarios"`
}

// Catalog is an immutable table of scenarios keyed by slug
type Catalog struct {
	version int
	bySlug  map[string]domain.Scenario
	ordered []string
}

// Load parses the embedded scenario table
func Load() (*Catalog, error) {
	return Parse(scenariosYAML)
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario catalog: %w", err)
	}

	c := &Catalog{version: doc.Version, bySlug: make(map[string]domain.Scenario, len(doc.Scenarios))}
	for i, e := range doc.Scenarios {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			return nil, fmt.Errorf("scenario %d: title is required", i)
		}
		slug := domain.Slugify(title)
		if _, dup := c.bySlug[slug]; dup {
			return nil, fmt.Errorf("scenario %q: duplicate slug %q", title, slug)
		}
		if e.Category == "" {
			e.Category = "general"
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("scenario %q: unknown category %q", title, e.Category)
		}
		if e.Difficulty == "" {
			e.Difficulty = domain.Difficulty(domain.LevelBeginner)
		}
		if !e.Difficulty.IsScenarioLevel() {
			return nil, fmt.Errorf("scenario %q: invalid difficulty %q", title, e.Difficulty)
		}
		if e.Description == "" {
			e.Description = fmt.Sprintf("Practice %s vocabulary and phrases", strings.ToLower(title))
		}

		content := domain.EmptyScenarioContent()
		mergeContent(&content, e.ScenarioContent)

		c.bySlug[slug] = domain.Scenario{
			ID:          slug,
			Title:       title,
			Description: e.Description,
			Category:    e.Category,
			Difficulty:  e.Difficulty,
			Data:        content,
		}
		c.ordered = append(c.ordered, slug)
	}

	sort.Slice(c.ordered, func(i, j int) bool {
		return c.bySlug[c.ordered[i]].Title < c.bySlug[c.ordered[j]].Title
	})
	return c, nil
}

// Version identifies the content revision of the table
func (c *Catalog) Version() int {
	return c.version
}

// Len returns the number of scenarios
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Lookup returns a copy of the scenario with the given slug
func (c *Catalog) Lookup(slug string) (domain.Scenario, bool) {
	s, ok := c.bySlug[slug]
	if !ok {
		return domain.Scenario{}, false
	}
	return clone(s), true
}

// All returns copies of every scenario ordered by title
func (c *Catalog) All() []domain.Scenario {
	out := make([]domain.Scenario, 0, len(c.ordered))
	for _, slug := range c.ordered {
		out = append(out, clone(c.bySlug[slug]))
	}
	return out
}

func mergeContent(dst *domain.ScenarioContent, src domain.ScenarioContent) {
	for k, v := range src.Vocabulary {
		dst.Vocabulary[k] = v
	}
	for k, v := range src.Phrases {
		dst.Phrases[k] = v
	}
	if src.Dialogues != nil {
		dst.Dialogues = src.Dialogues
	}
	if src.GrammarPoints != nil {
		dst.GrammarPoints = src.GrammarPoints
	}
	dst.Exercises = src.Exercises
	dst.CulturalNotes = src.CulturalNotes
}

func clone(s domain.Scenario) domain.Scenario {
	d := s.Data
	s.Data = domain.ScenarioContent{
		Vocabulary:    cloneGroups(d.Vocabulary),
		Phrases:       cloneGroups(d.Phrases),
		Dialogues:     slices.Clone(d.Dialogues),
		Exercises:     slices.Clone(d.Exercises),
		GrammarPoints: slices.Clone(d.GrammarPoints),
		CulturalNotes: d.CulturalNotes,
	}
	return s
}

func cloneGroups(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}
