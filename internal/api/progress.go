package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"esltrainer/internal/domain"
	"esltrainer/internal/middleware"
)

// masteryRequest carries either a relative delta or an absolute mastery value
type masteryRequest struct {
	Delta   *int `json:"delta"`
	Mastery *int `json:"mastery"`
}

type scoreRequest struct {
	Score *int `json:"score"`
}

type practiceTimeRequest struct {
	Seconds int `json:"seconds"`
}

type masteryResponse struct {
	Item  string `json:"item"`
	Score int    `json:"score"`
}

// GetProgress returns the caller's progress and stats
func (h *Handler) GetProgress(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	report, err := h.progress.GetProgress(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", report)
}

// UpdateVocabularyProgress changes a word's mastery
func (h *Handler) UpdateVocabularyProgress(c *gin.Context) {
	h.updateMastery(c, domain.MasteryVocabulary, itemParam(c, "word"))
}

// UpdatePhraseProgress changes a phrase's mastery
func (h *Handler) UpdatePhraseProgress(c *gin.Context) {
	h.updateMastery(c, domain.MasteryPhrase, itemParam(c, "phrase"))
}

// itemParam reads a catch-all path parameter, so items may contain '/'
func itemParam(c *gin.Context, name string) string {
	return strings.TrimPrefix(c.Param(name), "/")
}

func (h *Handler) updateMastery(c *gin.Context, kind domain.MasteryKind, item string) {
	var req masteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.UserID(c)
	ctx := c.Request.Context()

	var (
		score int
		err   error
	)
	switch {
	case req.Delta != nil && kind == domain.MasteryPhrase:
		score, err = h.progress.UpdatePhraseMastery(ctx, userID, item, *req.Delta)
	case req.Delta != nil:
		score, err = h.progress.UpdateVocabularyMastery(ctx, userID, item, *req.Delta)
	case req.Mastery != nil:
		score, err = h.progress.SetMastery(ctx, userID, kind, item, *req.Mastery)
	default:
		h.badRequest(c, "delta or mastery is required")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Progress updated successfully", masteryResponse{Item: item, Score: score})
}

// UpdateScenarioProgress records a scenario completion
func (h *Handler) UpdateScenarioProgress(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Score == nil {
		h.badRequest(c, "score is required")
		return
	}

	userID, _ := middleware.UserID(c)
	report, err := h.progress.UpdateScenarioProgress(c.Request.Context(), userID, c.Param("scenarioId"), *req.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Progress updated successfully", report)
}

// AddPracticeTime adds to the caller's total practice time
func (h *Handler) AddPracticeTime(c *gin.Context) {
	var req practiceTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.UserID(c)
	stats, err := h.progress.AddPracticeTime(c.Request.Context(), userID, req.Seconds)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Practice time recorded", stats)
}
