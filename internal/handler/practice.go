package handler

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"esltrainer/internal/domain"
)

const (
	maxPracticeWords = 20
	masteryStep      = 10
)

// handlePractice starts a word round for a scenario
func (h *Handler) handlePractice(c tele.Context, slug string) error {
	userID := c.Sender().ID
	ctx := context.Background()

	sc, err := h.scenarioService.Get(ctx, slug, "")
	if err != nil {
		h.logger.Error("Failed to load scenario for practice", zap.String("slug", slug), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Failed to load scenario"})
	}

	words := sc.Data.Words()
	if len(words) == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "This scenario has no words yet"})
	}
	if len(words) > maxPracticeWords {
		words = words[:maxPracticeWords]
	}

	state := &domain.StateData{
		State:       domain.StatePracticingWord,
		Scenario:    sc.ID,
		CurrentWord: words[0],
		Queue:       append([]string(nil), words[1:]...),
	}
	h.SetState(userID, state)

	h.logger.Info("Practice started",
		zap.Int64("user_id", userID),
		zap.String("scenario", sc.ID),
		zap.Int("words", len(words)),
	)
	return h.render(c, userID, wordCardText(state, ""), practiceMarkup())
}

// handleKnow handles "Know" button
func (h *Handler) handleKnow(c tele.Context) error {
	return h.answer(c, true)
}

// handleDontKnow handles "Don't know" button
func (h *Handler) handleDontKnow(c tele.Context) error {
	return h.answer(c, false)
}

func (h *Handler) answer(c tele.Context, known bool) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current := h.GetState(userID)
	if current.State != domain.StatePracticingWord || current.CurrentWord == "" {
		return c.Respond(&tele.CallbackResponse{Text: "No active practice"})
	}
	state := *current

	ctx := context.Background()
	user, err := h.authService.UserByTelegram(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to resolve linked account", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: "Something went wrong"})
	}

	delta := -masteryStep
	if known {
		delta = masteryStep
	}
	mastery, err := h.progressService.UpdateVocabularyMastery(ctx, user.ID, state.CurrentWord, delta)
	if err != nil {
		h.logger.Error("Failed to update mastery",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("word", state.CurrentWord),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Failed to save answer"})
	}

	state.Answered++
	if known {
		state.Known++
	}
	feedback := fmt.Sprintf("%s %s: %d%%", answerMark(known), state.CurrentWord, mastery)

	if len(state.Queue) == 0 {
		state.CurrentWord = ""
		h.SetState(userID, &state)
		return h.finishPractice(c, userID, &state, feedback)
	}

	state.CurrentWord = state.Queue[0]
	state.Queue = state.Queue[1:]
	h.SetState(userID, &state)

	return h.render(c, userID, wordCardText(&state, feedback), practiceMarkup())
}

// handleListen sends the pronunciation of the current word
func (h *Handler) handleListen(c tele.Context) error {
	userID := c.Sender().ID
	state := h.GetState(userID)
	if state.State != domain.StatePracticingWord || state.CurrentWord == "" {
		return c.Respond(&tele.CallbackResponse{Text: "No active practice"})
	}

	audio, err := h.speechService.Speak(context.Background(), state.CurrentWord)
	if err != nil {
		h.logger.Warn("Failed to synthesize word", zap.Error(err), zap.String("word", state.CurrentWord))
		return c.Respond(&tele.CallbackResponse{Text: "Audio is unavailable right now"})
	}

	if err := c.Send(&tele.Audio{
		File:     tele.FromReader(bytes.NewReader(audio)),
		FileName: state.CurrentWord + ".mp3",
		MIME:     "audio/mpeg",
		Title:    state.CurrentWord,
	}); err != nil {
		h.logger.Error("Failed to send audio", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: "Failed to send audio"})
	}
	return c.Respond()
}

// handleFinish ends the round early
func (h *Handler) handleFinish(c tele.Context) error {
	userID := c.Sender().ID
	lock := h.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state := h.GetState(userID)
	if state.State != domain.StatePracticingWord {
		return h.handleMainMenu(c)
	}
	return h.finishPractice(c, userID, state, "")
}

// finishPractice records the round as a scenario completion. Caller holds the user lock.
func (h *Handler) finishPractice(c tele.Context, userID int64, state *domain.StateData, feedback string) error {
	h.ResetState(userID)

	text := ""
	if feedback != "" {
		text = feedback + "\n\n"
	}

	score, ok := practiceScore(state.Known, state.Answered)
	if !ok {
		return h.render(c, userID, text+"🏁 Practice finished. No answers were recorded.", mainMenuMarkup())
	}

	ctx := context.Background()
	user, err := h.authService.UserByTelegram(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to resolve linked account", zap.Error(err), zap.Int64("user_id", userID))
		return h.render(c, userID, text+"Something went wrong. Please try again later.", mainMenuMarkup())
	}

	report, err := h.progressService.UpdateScenarioProgress(ctx, user.ID, state.Scenario, score)
	if err != nil {
		h.logger.Error("Failed to record scenario completion",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("scenario", state.Scenario),
		)
		return h.render(c, userID, text+"Failed to save your result.", mainMenuMarkup())
	}

	h.logger.Info("Practice finished",
		zap.Int64("user_id", userID),
		zap.String("scenario", state.Scenario),
		zap.Int("score", score),
	)

	text += fmt.Sprintf("🏁 %s finished!\n\nKnown: %d of %d\nScore: %d%%\n🔥 Streak: %d days",
		h.scenarioService.Title(state.Scenario), state.Known, state.Answered, score, report.Stats.StreakDays)
	return h.render(c, userID, text, mainMenuMarkup())
}

// practiceScore is the share of known words as a percentage. ok is false when nothing was answered.
func practiceScore(known, answered int) (score int, ok bool) {
	if answered <= 0 {
		return 0, false
	}
	if known > answered {
		known = answered
	}
	if known < 0 {
		known = 0
	}
	return known * 100 / answered, true
}

func wordCardText(state *domain.StateData, feedback string) string {
	total := state.Answered + 1 + len(state.Queue)
	text := fmt.Sprintf("🔤 Word %d of %d\n\n%s\n\nDo you know this word?", state.Answered+1, total, state.CurrentWord)
	if feedback != "" {
		text = feedback + "\n\n" + text
	}
	return text
}

func answerMark(known bool) string {
	if known {
		return "✅"
	}
	return "❌"
}
