package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
	"esltrainer/internal/middleware"
	"esltrainer/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Level    string `json:"level"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	res, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Level:    req.Level,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "User registered successfully", res)
}

// Login exchanges credentials for a token
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", res)
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", user)
}

// UpdatePreferences replaces the user's preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var prefs domain.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.UserID(c)
	user, err := h.auth.UpdatePreferences(c.Request.Context(), userID, prefs)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Preferences updated", user)
}

// GoogleAuth redirects to the Google consent page
func (h *Handler) GoogleAuth(c *gin.Context) {
	if h.oauth == nil {
		h.redirectLogin(c, url.Values{"error": {"oauth_not_configured"}})
		return
	}

	authURL, err := h.oauth.AuthURL(service.OAuthIntent(c.Query("authType")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback completes sign-in and hands the token to the web client
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.oauth == nil {
		h.redirectLogin(c, url.Values{"error": {"oauth_not_configured"}})
		return
	}
	if reason := c.Query("error"); reason != "" {
		h.redirectLogin(c, url.Values{"error": {"google_auth_failed"}})
		return
	}

	res, err := h.oauth.Complete(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		h.logger.Warn("Google sign-in failed", zap.Error(err))
		h.redirectLogin(c, url.Values{"error": {callbackError(err)}})
		return
	}
	h.redirectLogin(c, url.Values{"token": {res.Token}})
}

func (h *Handler) redirectLogin(c *gin.Context, q url.Values) {
	c.Redirect(http.StatusFound, h.clientURL+"/login?"+q.Encode())
}

func callbackError(err error) string {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return "callback_error"
	}
	switch appErr.Kind {
	case apperr.KindNotFound:
		return "user_not_found"
	case apperr.KindConflict:
		return "user_exists"
	case apperr.KindUnauthorized:
		return "access_denied"
	case apperr.KindUpstream, apperr.KindUpstreamTimeout:
		return "google_auth_failed"
	default:
		return "callback_error"
	}
}
