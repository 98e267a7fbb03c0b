package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"esltrainer/internal/apperr"
)

type successEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
	Count   *int   `json:"count,omitempty"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, successEnvelope{Status: "success", Message: message, Data: data})
}

func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, successEnvelope{Status: "success", Data: data, Count: &count})
}

// fail renders err as an error envelope. In production 5xx responses carry a
// generic message; the detail goes to the log only.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	message := apperr.MessageOf(err)

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		if h.production {
			message = genericMessage(kind)
		}
	}

	c.AbortWithStatusJSON(status, errorEnvelope{Status: "error", Message: message})
}

func genericMessage(kind apperr.Kind) string {
	switch kind {
	case apperr.KindUpstream, apperr.KindUpstreamTimeout:
		return "Service temporarily unavailable"
	default:
		return "Internal server error"
	}
}

func (h *Handler) badRequest(c *gin.Context, message string) {
	h.fail(c, apperr.Validation(message))
}
