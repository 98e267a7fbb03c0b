package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Level is the learner's self-declared proficiency
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel validates a level, defaulting an empty value to beginner
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "":
		return LevelBeginner, nil
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return Level(s), nil
	}
	return "", fmt.Errorf("invalid level %q", s)
}

// Theme is the UI colour scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences holds user-tunable settings
type Preferences struct {
	DailyGoal            int   `json:"dailyGoal"`
	NotificationsEnabled bool  `json:"notificationsEnabled"`
	Theme                Theme `json:"theme"`
}

// DefaultPreferences returns the settings of a freshly registered user
func DefaultPreferences() Preferences {
	return Preferences{
		DailyGoal:            10,
		NotificationsEnabled: true,
		Theme:                ThemeLight,
	}
}

// Validate checks preference bounds
func (p Preferences) Validate() error {
	if p.DailyGoal < 1 || p.DailyGoal > 500 {
		return fmt.Errorf("daily goal must be between 1 and 500")
	}
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		return fmt.Errorf("invalid theme %q", p.Theme)
	}
	return nil
}

// Stats holds practice counters
type Stats struct {
	TotalPracticeTime int        `json:"totalPracticeTime"`
	StreakDays        int        `json:"streakDays"`
	LastPracticeDate  *time.Time `json:"lastPracticeDate,omitempty"`
}

// User represents a learner account
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Level        Level       `json:"level"`
	TelegramID   *int64      `json:"-"`
	Preferences  Preferences `json:"preferences"`
	Stats        Stats       `json:"stats"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// BotState represents a Telegram user's current interaction state
type BotState string

const (
	StateIdle           BotState = "idle"
	StateWaitingLink    BotState = "waiting_link"
	StatePracticingWord BotState = "practicing_word"
)

// StateData holds temporary data for a Telegram user's practice session
type StateData struct {
	State       BotState
	Scenario    string
	CurrentWord string
	Queue       []string
	Answered    int
	Known       int
}
