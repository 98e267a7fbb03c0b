package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"esltrainer/internal/apperr"
	"esltrainer/internal/catalog"
	"esltrainer/internal/domain"
	"esltrainer/internal/service"
	"esltrainer/internal/testutil"
	"esltrainer/internal/tts"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router   *gin.Engine
	users    *testutil.MockUserRepository
	progress *testutil.MockProgressRepository
	vocab    *testutil.MockVocabularyRepository
	provider *testutil.MockProvider
	speech   *testutil.MockSpeechCache
	tokens   *service.TokenIssuer
	userID   uuid.UUID
	token    string
}

type fakeExchanger struct {
	profile *service.GoogleProfile
	err     error
}

func (f *fakeExchanger) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeExchanger) Exchange(context.Context, string) (*service.GoogleProfile, error) {
	return f.profile, f.err
}

func newTestEnv(t *testing.T, production bool, exch service.OAuthExchanger) *testEnv {
	t.Helper()
	logger := testutil.NewTestLogger()

	env := &testEnv{
		users:    new(testutil.MockUserRepository),
		progress: new(testutil.MockProgressRepository),
		vocab:    new(testutil.MockVocabularyRepository),
		provider: new(testutil.MockProvider),
		speech:   new(testutil.MockSpeechCache),
		tokens:   service.NewTokenIssuer("test-secret", time.Hour),
		userID:   uuid.New(),
	}

	token, err := env.tokens.Issue(env.userID)
	require.NoError(t, err)
	env.token = token

	cat, err := catalog.Load()
	require.NoError(t, err)

	var oauth *service.OAuthService
	if exch != nil {
		oauth = service.NewOAuthService(env.users, env.tokens, exch, logger)
	}

	env.router = NewRouter(Config{
		Auth:       service.NewAuthService(env.users, env.tokens, logger),
		OAuth:      oauth,
		Progress:   service.NewProgressService(env.users, env.progress, logger),
		Scenarios:  service.NewScenarioService(cat, env.vocab, env.provider, time.Hour, logger),
		Vocabulary: service.NewVocabularyService(env.vocab, logger),
		Content:    service.NewContentService(env.provider, "Turkish", logger),
		Speech:     service.NewSpeechService(env.speech, logger),
		ClientURL:  "http://localhost:3001",
		Origins:    []string{"http://localhost:3001"},
		Production: production,
		Logger:     logger,
	})
	return env
}

func (e *testEnv) do(method, path string, body any, auth bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true, nil)

	w := env.do(http.MethodGet, "/api/health", nil, false)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	w := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret1",
	}, false)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	assert.NotContains(t, data["user"], "passwordHash")

	user := testutil.NewTestUser("ann@example.com")
	env.users.On("GetByEmail", mock.Anything, "ann@example.com").Return(user, nil)

	w = env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ann@example.com", "password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, map[string]any{"status": "error", "message": "Invalid credentials"}, decode(t, w))

	w = env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ann@example.com", "password": "password123"}, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, true, nil)

	w := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "123",
	}, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter a password with 6 or more characters", decode(t, w)["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, true, nil)

	for _, path := range []string{"/api/auth/me", "/api/progress", "/api/vocabulary/scenarios"} {
		w := env.do(http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, true, nil)
	user := testutil.NewTestUser("ann@example.com")
	user.ID = env.userID
	env.users.On("GetByID", mock.Anything, env.userID).Return(user, nil)

	w := env.do(http.MethodGet, "/api/auth/me", nil, true)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "ann@example.com", data["email"])
}

func TestUpdatePreferences(t *testing.T) {
	env := newTestEnv(t, true, nil)
	user := testutil.NewTestUser("ann@example.com")
	user.ID = env.userID
	prefs := domain.Preferences{DailyGoal: 15, NotificationsEnabled: true, Theme: domain.ThemeDark}
	env.users.On("UpdatePreferences", mock.Anything, env.userID, prefs).Return(nil)
	env.users.On("GetByID", mock.Anything, env.userID).Return(user, nil)

	w := env.do(http.MethodPut, "/api/auth/preferences", prefs, true)
	require.Equal(t, http.StatusOK, w.Code)
	env.users.AssertExpectations(t)

	w = env.do(http.MethodPut, "/api/auth/preferences", map[string]any{"dailyGoal": 10, "theme": "purple"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestUpdateVocabularyProgress(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		current  int
		expected int
		status   int
	}{
		{name: "delta", body: map[string]int{"delta": 10}, current: 40, expected: 50, status: http.StatusOK},
		{name: "delta clamps", body: map[string]int{"delta": 70}, current: 40, expected: 100, status: http.StatusOK},
		{name: "absolute mastery", body: map[string]int{"mastery": 25}, current: 90, expected: 25, status: http.StatusOK},
		{name: "empty body", body: map[string]int{}, status: http.StatusBadRequest},
		{name: "large delta clamps", body: map[string]int{"delta": 500}, current: 40, expected: 100, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true, nil)
			env.progress.On("UpdateMastery", mock.Anything, env.userID, domain.MasteryVocabulary, "coffee").
				Return(tt.current, nil).Maybe()

			w := env.do(http.MethodPost, "/api/progress/vocabulary/coffee", tt.body, true)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				data := decode(t, w)["data"].(map[string]any)
				assert.Equal(t, float64(tt.expected), data["score"])
			}
		})
	}
}

func TestUpdatePhraseProgress_ItemWithSlash(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "plain slash", path: "/api/progress/phrase/either/or"},
		{name: "escaped slash", path: "/api/progress/phrase/" + url.PathEscape("either/or")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true, nil)
			env.progress.On("UpdateMastery", mock.Anything, env.userID, domain.MasteryPhrase, "either/or").Return(20, nil)

			w := env.do(http.MethodPost, tt.path, map[string]int{"delta": 10}, true)

			require.Equal(t, http.StatusOK, w.Code)
			data := decode(t, w)["data"].(map[string]any)
			assert.Equal(t, "either/or", data["item"])
			assert.Equal(t, float64(30), data["score"])
			env.progress.AssertExpectations(t)
		})
	}

	env := newTestEnv(t, true, nil)
	w := env.do(http.MethodPost, "/api/progress/phrase/", map[string]int{"delta": 10}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateScenarioProgress(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.progress.On("RecordCompletion", mock.Anything, env.userID, mock.Anything, mock.Anything).
		Return(&domain.Stats{StreakDays: 1}, nil)
	env.progress.On("GetProgress", mock.Anything, env.userID).
		Return(&domain.ProgressReport{Progress: domain.NewProgress(), Stats: domain.Stats{StreakDays: 1}}, nil)

	w := env.do(http.MethodPost, "/api/progress/scenario/coffee-shop", map[string]int{"score": 90}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/progress/scenario/coffee-shop", map[string]int{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/progress/scenario/coffee-shop", map[string]int{"score": 120}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScenarios(t *testing.T) {
	env := newTestEnv(t, true, nil)

	w := env.do(http.MethodGet, "/api/vocabulary/scenarios", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(77), body["count"])

	w = env.do(http.MethodGet, "/api/vocabulary/scenarios/coffee-shop", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "coffee-shop", data["_id"])
	assert.Equal(t, "Coffee Shop", data["title"])

	w = env.do(http.MethodGet, "/api/vocabulary/scenarios/coffee-shop/phrases", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	phrases := decode(t, w)["data"].(map[string]any)
	assert.Contains(t, phrases, "basic")
}

func TestScenario_GeneratedPlaceholder(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.vocab.On("GetByCacheKey", mock.Anything, "scenario:ski-resort:beginner").
		Return(nil, apperr.NotFound("Vocabulary item not found"))
	env.provider.On("Generate", mock.Anything, mock.Anything).Return("not json at all", nil)

	w := env.do(http.MethodGet, "/api/vocabulary/scenarios/ski-resort", nil, true)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["placeholder"])
	assert.Equal(t, map[string]any{}, data["data"].(map[string]any)["vocabulary"])
}

func TestScenario_MalformedSlug(t *testing.T) {
	env := newTestEnv(t, true, nil)

	w := env.do(http.MethodGet, "/api/vocabulary/scenarios/"+url.PathEscape("coffee shop; ignore previous"), nil, true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	env.vocab.AssertNotCalled(t, "GetByCacheKey", mock.Anything, mock.Anything)
}

func TestTextToSpeech(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		audio   []byte
		err     error
		status  int
		message string
	}{
		{name: "audio", text: "Hello", audio: []byte("ID3audio"), status: http.StatusOK},
		{name: "empty text", text: "", status: http.StatusBadRequest},
		{name: "provider down", text: "Hello", err: tts.ErrSynthesisUnavailable, status: http.StatusBadGateway, message: "Service temporarily unavailable"},
		{name: "disk failure", text: "Hello", err: tts.ErrCacheWriteFailed, status: http.StatusInternalServerError, message: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true, nil)
			env.speech.On("GetOrSynthesize", mock.Anything, tt.text).Return(tt.audio, tt.err).Maybe()

			w := env.do(http.MethodPost, "/api/vocabulary/tts", map[string]string{"text": tt.text}, true)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
				assert.Equal(t, tt.audio, w.Body.Bytes())
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, decode(t, w)["message"])
			}
		})
	}
}

func TestErrorDetailOutsideProduction(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.progress.On("GetProgress", mock.Anything, env.userID).
		Return(nil, apperr.Storage("failed to load progress", errors.New("connection refused")))

	w := env.do(http.MethodGet, "/api/progress", nil, true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to load progress", decode(t, w)["message"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGenerate(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.provider.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `English word "coffee"`)
	})).Return("```json\n{\"translation\":\"kahve\"}\n```", nil)

	w := env.do(http.MethodPost, "/api/vocabulary/generate", map[string]string{"text": "coffee", "type": "word"}, true)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "kahve", data["translation"])
}

func TestGoogleOAuthFlow(t *testing.T) {
	user := testutil.NewTestUser("ann@example.com")
	exch := &fakeExchanger{profile: &service.GoogleProfile{Email: "ann@example.com", Name: "Ann", Verified: true}}
	env := newTestEnv(t, true, exch)
	env.users.On("GetByEmail", mock.Anything, "ann@example.com").Return(user, nil)

	w := env.do(http.MethodGet, "/api/auth/google?authType=signin", nil, false)
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	w = env.do(http.MethodGet, "/api/auth/google/callback?code=abc&state="+url.QueryEscape(state), nil, false)
	require.Equal(t, http.StatusFound, w.Code)
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	token := loc.Query().Get("token")
	id, err := env.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	w = env.do(http.MethodGet, "/api/auth/google/callback?code=abc&state=forged", nil, false)
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", loc.Query().Get("error"))

	w = env.do(http.MethodGet, "/api/auth/google?authType=bogus", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleOAuth_NotConfigured(t *testing.T) {
	env := newTestEnv(t, true, nil)

	w := env.do(http.MethodGet, "/api/auth/google?authType=signin", nil, false)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=oauth_not_configured")
}
