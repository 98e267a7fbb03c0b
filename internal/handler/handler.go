package handler

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"esltrainer/internal/domain"
	"esltrainer/internal/middleware"
	"esltrainer/internal/service"
)

// Handler manages all bot interactions
type Handler struct {
	bot             *tele.Bot
	authService     *service.AuthService
	scenarioService *service.ScenarioService
	progressService *service.ProgressService
	speechService   *service.SpeechService
	logger          *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex

	// Per-user locks so double-tapped answer buttons are counted once
	callbackLocks map[int64]*sync.Mutex
	callbackMux   sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	scenarioService *service.ScenarioService,
	progressService *service.ProgressService,
	speechService *service.SpeechService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:             bot,
		authService:     authService,
		scenarioService: scenarioService,
		progressService: progressService,
		speechService:   speechService,
		logger:          logger,
		states:          make(map[int64]*domain.StateData),
		callbackLocks:   make(map[int64]*sync.Mutex),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	h.bot.Use(middleware.BotAuthMiddleware(h.authService, h.allowUnlinked, h.logger))

	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/progress", h.handleProgress)
	h.bot.Handle("/scenarios", h.handleScenarios)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnScenarios, h.handleScenarios)
	h.bot.Handle(&btnProgress, h.handleProgress)
	h.bot.Handle(&btnKnow, h.handleKnow)
	h.bot.Handle(&btnDontKnow, h.handleDontKnow)
	h.bot.Handle(&btnListen, h.handleListen)
	h.bot.Handle(&btnFinish, h.handleFinish)
	h.bot.Handle(&btnMainMenu, h.handleMainMenu)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// allowUnlinked lets the linking flow through the auth middleware
func (h *Handler) allowUnlinked(c tele.Context) bool {
	if c.Callback() == nil && strings.TrimSpace(c.Text()) == "/start" {
		return true
	}
	return c.Callback() == nil && h.GetState(c.Sender().ID).State == domain.StateWaitingLink
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	return state
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = state
}

// ResetState resets user to idle state
func (h *Handler) ResetState(userID int64) {
	h.SetState(userID, &domain.StateData{State: domain.StateIdle})
}

func (h *Handler) userLock(userID int64) *sync.Mutex {
	h.callbackMux.Lock()
	defer h.callbackMux.Unlock()

	lock, exists := h.callbackLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.callbackLocks[userID] = lock
	}
	return lock
}

// Inline keyboard buttons
var (
	btnScenarios = tele.Btn{
		Unique: "scenarios",
		Text:   "📚 Scenarios",
	}
	btnProgress = tele.Btn{
		Unique: "progress",
		Text:   "📈 Progress",
	}
	btnKnow = tele.Btn{
		Unique: "know",
		Text:   "✅ Know",
	}
	btnDontKnow = tele.Btn{
		Unique: "dont_know",
		Text:   "❌ Don't know",
	}
	btnListen = tele.Btn{
		Unique: "listen",
		Text:   "🔊 Listen",
	}
	btnFinish = tele.Btn{
		Unique: "finish",
		Text:   "🏁 Finish",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
)

const mainMenuText = "🏠 Main menu\n\nChoose an action:"

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnScenarios),
		menu.Row(btnProgress),
	)
	return menu
}

// practiceMarkup returns the answer keyboard shown with each word
func practiceMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnKnow, btnDontKnow),
		menu.Row(btnListen, btnFinish),
	)
	return menu
}
