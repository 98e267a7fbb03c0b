package domain

import (
	"fmt"
	"time"
)

const (
	MinMastery = 0
	MaxMastery = 100
)

// MasteryKind selects which mastery map a score belongs to
type MasteryKind string

const (
	MasteryVocabulary MasteryKind = "vocabulary"
	MasteryPhrase     MasteryKind = "phrase"
)

// Valid reports whether k is a known kind
func (k MasteryKind) Valid() bool {
	return k == MasteryVocabulary || k == MasteryPhrase
}

// ApplyMasteryDelta adds delta to current and clamps the result to [0, 100]
func ApplyMasteryDelta(current, delta int) int {
	// scores live in [0, 100], so a wider step cannot change the result
	if delta > MaxMastery-MinMastery {
		delta = MaxMastery - MinMastery
	}
	if delta < MinMastery-MaxMastery {
		delta = MinMastery - MaxMastery
	}
	next := current + delta
	if next > MaxMastery {
		return MaxMastery
	}
	if next < MinMastery {
		return MinMastery
	}
	return next
}

// CompletedScenario records the latest completion of a scenario
type CompletedScenario struct {
	ScenarioID  string    `json:"scenarioId"`
	CompletedAt time.Time `json:"completedAt"`
	Score       int       `json:"score"`
}

// ValidateScore checks that a scenario score is a percentage
func ValidateScore(score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("score must be between 0 and 100, got %d", score)
	}
	return nil
}

// UpsertCompletion replaces the record with the same scenario id, or appends rec
func UpsertCompletion(list []CompletedScenario, rec CompletedScenario) []CompletedScenario {
	for i := range list {
		if list[i].ScenarioID == rec.ScenarioID {
			list[i] = rec
			return list
		}
	}
	return append(list, rec)
}

// Progress is the per-user learning state
type Progress struct {
	CompletedScenarios []CompletedScenario `json:"completedScenarios"`
	VocabularyMastery  map[string]int      `json:"vocabularyMastery"`
	PhraseMastery      map[string]int      `json:"phraseMastery"`
}

// NewProgress returns an empty progress with initialised maps
func NewProgress() *Progress {
	return &Progress{
		CompletedScenarios: []CompletedScenario{},
		VocabularyMastery:  map[string]int{},
		PhraseMastery:      map[string]int{},
	}
}

// Mastery returns the map for kind
func (p *Progress) Mastery(kind MasteryKind) map[string]int {
	if kind == MasteryPhrase {
		return p.PhraseMastery
	}
	return p.VocabularyMastery
}

// MasteredCount counts items of kind whose score reaches threshold
func (p *Progress) MasteredCount(kind MasteryKind, threshold int) int {
	n := 0
	for _, score := range p.Mastery(kind) {
		if score >= threshold {
			n++
		}
	}
	return n
}

// ProgressReport bundles progress with stats, as returned to clients
type ProgressReport struct {
	Progress *Progress `json:"progress"`
	Stats    Stats     `json:"stats"`
}
