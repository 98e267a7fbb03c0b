package handler

import (
	"context"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
)

const linkPrompt = "👋 Welcome to the ESL trainer!\n\nTo link your account, send your email and password separated by a space:\n\nanna@example.com mypassword"

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	linked, err := h.authService.IsLinked(context.Background(), userID)
	if err != nil {
		h.logger.Error("Failed to check account link", zap.Error(err))
		return c.Send("Something went wrong. Please try again later.")
	}

	if !linked {
		h.SetState(userID, &domain.StateData{State: domain.StateWaitingLink})
		return c.Send(linkPrompt)
	}

	h.ResetState(userID)
	return c.Send(mainMenuText, mainMenuMarkup())
}

// handleMainMenu shows the main menu in place of the current message
func (h *Handler) handleMainMenu(c tele.Context) error {
	userID := c.Sender().ID
	h.ResetState(userID)
	return h.render(c, userID, mainMenuText, mainMenuMarkup())
}

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	state := h.GetState(userID)

	switch state.State {
	case domain.StateWaitingLink:
		email, password, ok := parseLinkText(text)
		if !ok {
			return c.Send("Please send your email and password separated by a space.")
		}

		user, err := h.authService.LinkTelegram(context.Background(), userID, email, password)
		switch {
		case apperr.Is(err, apperr.KindUnauthorized):
			return c.Send("❌ Invalid credentials. Try again:")
		case apperr.Is(err, apperr.KindConflict):
			h.ResetState(userID)
			return c.Send("This Telegram account is already linked to another user.")
		case err != nil:
			h.logger.Error("Failed to link account", zap.Error(err), zap.Int64("user_id", userID))
			return c.Send("Something went wrong. Please try again later.")
		}

		h.logger.Info("User linked", zap.Int64("user_id", userID), zap.String("account_id", user.ID.String()))
		h.ResetState(userID)
		return c.Send("✅ Account linked, "+user.Name+"!\n\n"+mainMenuText, mainMenuMarkup())

	case domain.StatePracticingWord:
		return c.Send("Use the buttons under the word to answer, or press Finish.")

	default:
		return c.Send(mainMenuText, mainMenuMarkup())
	}
}

// parseLinkText splits "email password". The password may contain spaces.
func parseLinkText(text string) (email, password string, ok bool) {
	email, password, found := strings.Cut(strings.TrimSpace(text), " ")
	password = strings.TrimSpace(password)
	if !found || !strings.Contains(email, "@") || password == "" {
		return "", "", false
	}
	return email, password, true
}
