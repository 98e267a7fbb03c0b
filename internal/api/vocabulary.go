package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"esltrainer/internal/domain"
	"esltrainer/internal/middleware"
	"esltrainer/internal/service"
)

type ttsRequest struct {
	Text string `json:"text"`
}

type generateRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// ListScenarios returns the built-in scenario catalog
func (h *Handler) ListScenarios(c *gin.Context) {
	scenarios := h.scenarios.List()
	respondList(c, scenarios, len(scenarios))
}

// GetScenario resolves a scenario by slug, generating it when unknown
func (h *Handler) GetScenario(c *gin.Context) {
	sc, err := h.scenarios.Get(c.Request.Context(), c.Param("id"), c.Query("level"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", sc)
}

// GetScenarioVocabulary returns a scenario's words by CEFR band
func (h *Handler) GetScenarioVocabulary(c *gin.Context) {
	vocab, err := h.scenarios.Vocabulary(c.Request.Context(), c.Param("id"), c.Query("level"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", vocab)
}

// GetScenarioPhrases returns a scenario's phrases by group
func (h *Handler) GetScenarioPhrases(c *gin.Context) {
	phrases, err := h.scenarios.Phrases(c.Request.Context(), c.Param("id"), c.Query("level"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", phrases)
}

// ListItems searches persisted word and scenario items
func (h *Handler) ListItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	filter := domain.VocabularyFilter{
		Type:       domain.ItemType(c.Query("type")),
		Category:   domain.Category(c.Query("category")),
		Difficulty: domain.Difficulty(c.Query("difficulty")),
		Query:      c.Query("q"),
	}

	items, err := h.vocabulary.List(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, items, len(items))
}

// GetItem returns one vocabulary item
func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.vocabulary.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", item)
}

// UpdateItemProgress is the legacy form of vocabulary mastery updates:
// {score} is applied as a delta to the word named by :id.
func (h *Handler) UpdateItemProgress(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Score == nil {
		h.badRequest(c, "score is required")
		return
	}

	userID, _ := middleware.UserID(c)
	word := c.Param("id")
	score, err := h.progress.UpdateVocabularyMastery(c.Request.Context(), userID, word, *req.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Progress updated successfully", masteryResponse{Item: word, Score: score})
}

// TextToSpeech returns MP3 audio for the given text
func (h *Handler) TextToSpeech(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Text is required")
		return
	}

	audio, err := h.speech.Speak(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// Generate returns AI study notes for a word or sentence
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Text is required")
		return
	}

	data, err := h.content.Generate(c.Request.Context(), req.Text, service.ParseContentKind(req.Type))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", data)
}
