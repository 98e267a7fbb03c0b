package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"esltrainer/internal/domain"
)

const (
	masteredThreshold = 80
	recentScenarios   = 5
)

// handleProgress shows the learner's statistics
func (h *Handler) handleProgress(c tele.Context) error {
	userID := c.Sender().ID
	ctx := context.Background()

	user, err := h.authService.UserByTelegram(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to resolve linked account", zap.Error(err), zap.Int64("user_id", userID))
		return h.render(c, userID, "Something went wrong. Please try again later.", mainMenuMarkup())
	}

	report, err := h.progressService.GetProgress(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to get progress", zap.Error(err), zap.Int64("user_id", userID))
		return h.render(c, userID, "Failed to load progress.", mainMenuMarkup())
	}

	return h.render(c, userID, formatProgress(report, h.scenarioService.Title, time.Now()), mainMenuMarkup())
}

// formatProgress renders a progress report as a chat message
func formatProgress(report *domain.ProgressReport, title func(string) string, now time.Time) string {
	progress := report.Progress
	if progress == nil {
		progress = domain.NewProgress()
	}

	var b strings.Builder
	b.WriteString("📈 Your progress\n\n")
	fmt.Fprintf(&b, "🔥 Streak: %d days\n", report.Stats.StreakDays)
	if report.Stats.LastPracticeDate != nil {
		fmt.Fprintf(&b, "📅 Last practice: %s\n", domain.PracticeDayLabel(*report.Stats.LastPracticeDate, now))
	} else {
		b.WriteString("📅 Last practice: never\n")
	}
	fmt.Fprintf(&b, "⏱ Practice time: %s\n", formatDuration(report.Stats.TotalPracticeTime))
	fmt.Fprintf(&b, "🏆 Scenarios completed: %d\n", len(progress.CompletedScenarios))
	fmt.Fprintf(&b, "🔤 Words mastered: %d of %d\n",
		progress.MasteredCount(domain.MasteryVocabulary, masteredThreshold), len(progress.VocabularyMastery))
	fmt.Fprintf(&b, "💬 Phrases mastered: %d of %d",
		progress.MasteredCount(domain.MasteryPhrase, masteredThreshold), len(progress.PhraseMastery))

	completed := progress.CompletedScenarios
	if len(completed) > 0 {
		b.WriteString("\n\nRecent scenarios:")
		// Newest last in storage
		for i := len(completed) - 1; i >= 0 && i >= len(completed)-recentScenarios; i-- {
			sc := completed[i]
			fmt.Fprintf(&b, "\n• %s: %d%% (%s)", title(sc.ScenarioID), sc.Score, domain.PracticeDayLabel(sc.CompletedAt, now))
		}
	}
	return b.String()
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Hour {
		return fmt.Sprintf("%d min", int(d.Minutes()))
	}
	return fmt.Sprintf("%d h %d min", int(d.Hours()), int(d.Minutes())%60)
}
