package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const scenariosPerPage = 8

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Already edited by another callback
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		_ = c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// render edits the message behind a callback, or sends a new one for commands
func (h *Handler) render(c tele.Context, userID int64, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() == nil {
		return c.Send(text, markup)
	}
	if err := c.Edit(text, markup); err != nil {
		if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
			return nil
		}
		return c.Send(text, markup)
	}
	return c.Respond()
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	// Buttons whose Unique did not reach a dedicated handler
	switch firstNonEmpty(callback.Unique, data) {
	case "scenarios":
		return h.handleScenarios(c)
	case "progress":
		return h.handleProgress(c)
	case "know":
		return h.handleKnow(c)
	case "dont_know":
		return h.handleDontKnow(c)
	case "listen":
		return h.handleListen(c)
	case "finish":
		return h.handleFinish(c)
	case "main_menu":
		return h.handleMainMenu(c)
	}

	// Dynamic buttons
	prefix, arg := splitDynamicCallback(data)
	switch prefix {
	case prefixPage:
		return h.handlePagination(c, arg)
	case prefixScenario:
		return h.handleScenarioCard(c, arg)
	case prefixPractice:
		return h.handlePractice(c, arg)
	}

	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// Prefixes of buttons built at runtime with markup.Data
const (
	prefixPage     = "page_"
	prefixScenario = "sc_"
	prefixPractice = "practice_"
)

// splitDynamicCallback returns the known prefix of data and its argument.
// prefix is empty when data is not a dynamic button or carries no argument.
func splitDynamicCallback(data string) (prefix, arg string) {
	for _, p := range []string{prefixPage, prefixScenario, prefixPractice} {
		if rest, ok := strings.CutPrefix(data, p); ok && rest != "" {
			return p, rest
		}
	}
	return "", ""
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// handleScenarios shows the first page of scenarios
func (h *Handler) handleScenarios(c tele.Context) error {
	return h.showScenarioPage(c, 1)
}

// handlePagination handles page navigation
func (h *Handler) handlePagination(c tele.Context, arg string) error {
	page, err := strconv.Atoi(arg)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Invalid page"})
	}
	return h.showScenarioPage(c, page)
}

func (h *Handler) showScenarioPage(c tele.Context, page int) error {
	userID := c.Sender().ID
	scenarios := h.scenarioService.List()

	start, end, page, totalPages := pageBounds(len(scenarios), page, scenariosPerPage)
	if start >= end {
		return h.render(c, userID, "No scenarios available yet.", mainMenuMarkup())
	}

	text := fmt.Sprintf("📚 Scenarios (page %d of %d)\n\nPick one to practice:", page, totalPages)
	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}

	for _, sc := range scenarios[start:end] {
		rows = append(rows, markup.Row(markup.Data(sc.Title, prefixScenario+sc.ID)))
	}

	if totalPages > 1 {
		navRow := tele.Row{}
		if page > 1 {
			navRow = append(navRow, markup.Data("⬅️", fmt.Sprintf("%s%d", prefixPage, page-1)))
		}
		if page < totalPages {
			navRow = append(navRow, markup.Data("➡️", fmt.Sprintf("%s%d", prefixPage, page+1)))
		}
		rows = append(rows, navRow)
	}
	rows = append(rows, markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return h.render(c, userID, text, markup)
}

// pageBounds returns the slice bounds of page, clamped to [1, totalPages]
func pageBounds(total, page, size int) (start, end, current, totalPages int) {
	totalPages = (total + size - 1) / size
	if totalPages == 0 {
		return 0, 0, 1, 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start = (page - 1) * size
	end = start + size
	if end > total {
		end = total
	}
	return start, end, page, totalPages
}

// handleScenarioCard shows a scenario summary with a practice button
func (h *Handler) handleScenarioCard(c tele.Context, slug string) error {
	userID := c.Sender().ID

	sc, err := h.scenarioService.Get(context.Background(), slug, "")
	if err != nil {
		h.logger.Error("Failed to load scenario", zap.String("slug", slug), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Failed to load scenario"})
	}

	words := sc.Data.Words()
	phrases := sc.Data.AllPhrases()
	text := fmt.Sprintf("📖 %s\n\n%s\n\nWords: %d\nPhrases: %d", sc.Title, sc.Description, len(words), len(phrases))
	if len(phrases) > 0 {
		text += "\n\nExample phrases:"
		for _, p := range phrases[:min(3, len(phrases))] {
			text += "\n• " + p
		}
	}

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}
	if len(words) > 0 {
		rows = append(rows, markup.Row(markup.Data("▶️ Practice words", prefixPractice+sc.ID)))
	}
	rows = append(rows, markup.Row(markup.Data("◀️ To scenarios", prefixPage+"1"), btnMainMenu))
	markup.Inline(rows...)

	return h.render(c, userID, text, markup)
}
