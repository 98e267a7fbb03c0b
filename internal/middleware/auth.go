package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"esltrainer/internal/service"
)

const userIDKey = "userID"

// TokenParser resolves a bearer token to a user id
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// RequireAuth rejects requests without a valid bearer token and stores
// the caller's id in the gin context
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		userID, err := tokens.ParseToken(token)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "Token is not valid")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireAuth
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// BotAuthMiddleware lets only Telegram users with a linked account through.
// allow exempts updates that are part of the linking flow itself.
func BotAuthMiddleware(authService *service.AuthService, allow func(c tele.Context) bool, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return nil
			}
			if allow(c) {
				return next(c)
			}

			linked, err := authService.IsLinked(context.Background(), c.Sender().ID)
			if err != nil {
				logger.Error("Failed to check account link in middleware", zap.Error(err))
				return c.Send("Something went wrong. Please try again later.")
			}

			if !linked {
				if c.Callback() != nil {
					_ = c.Respond(&tele.CallbackResponse{Text: "Link your account with /start first"})
				}
				return c.Send("Your Telegram account is not linked yet. Send /start to link it.")
			}

			return next(c)
		}
	}
}
