package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
	"esltrainer/internal/testutil"
)

const testSecret = "test-secret"

func newAuthService(users *testutil.MockUserRepository) *AuthService {
	svc := NewAuthService(users, NewTokenIssuer(testSecret, time.Hour), testutil.NewTestLogger())
	svc.cost = bcrypt.MinCost
	return svc
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	userID := uuid.New()

	token, err := issuer.Issue(userID)
	require.NoError(t, err)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenIssuer_Parse_Rejects(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	userID := uuid.New()

	expired := NewTokenIssuer(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue(userID)
	require.NoError(t, err)

	otherKey, err := NewTokenIssuer("other-secret", time.Hour).Issue(userID)
	require.NoError(t, err)

	state, err := issuer.IssueState(IntentSignin)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID.String()}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "expired", token: expiredToken},
		{name: "wrong key", token: otherKey},
		{name: "oauth state", token: state},
		{name: "no expiry", token: noExpiry},
		{name: "bad subject", token: badSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		})
	}
}

func TestTokenIssuer_State(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	for _, intent := range []OAuthIntent{IntentSignup, IntentSignin} {
		state, err := issuer.IssueState(intent)
		require.NoError(t, err)

		got, err := issuer.ParseState(state)
		require.NoError(t, err)
		assert.Equal(t, intent, got)
	}

	access, err := issuer.Issue(uuid.New())
	require.NoError(t, err)
	_, err = issuer.ParseState(access)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err), "access token must not pass as state")

	stale := NewTokenIssuer(testSecret, time.Hour)
	stale.now = func() time.Time { return time.Now().Add(-11 * time.Minute) }
	old, err := stale.IssueState(IntentSignup)
	require.NoError(t, err)
	_, err = issuer.ParseState(old)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		repoErr error
		errKind apperr.Kind
	}{
		{
			name:  "valid",
			input: RegisterInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1", Level: "intermediate"},
		},
		{
			name:  "default level",
			input: RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"},
		},
		{
			name:    "missing name",
			input:   RegisterInput{Email: "ann@example.com", Password: "secret1"},
			errKind: apperr.KindValidation,
		},
		{
			name:    "invalid email",
			input:   RegisterInput{Name: "Ann", Email: "not-an-email", Password: "secret1"},
			errKind: apperr.KindValidation,
		},
		{
			name:    "short password",
			input:   RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "12345"},
			errKind: apperr.KindValidation,
		},
		{
			name:    "invalid level",
			input:   RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", Level: "expert"},
			errKind: apperr.KindValidation,
		},
		{
			name:    "duplicate email",
			input:   RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"},
			repoErr: apperr.Conflict("User already exists"),
			errKind: apperr.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testutil.MockUserRepository)
			users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
				Run(func(args mock.Arguments) {
					args.Get(1).(*domain.User).ID = uuid.New()
				}).
				Return(tt.repoErr).Maybe()

			svc := newAuthService(users)
			res, err := svc.Register(context.Background(), tt.input)

			if tt.errKind != "" {
				assert.Equal(t, tt.errKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ann@example.com", res.User.Email)
			assert.NotEmpty(t, res.User.PasswordHash)
			assert.NotEqual(t, tt.input.Password, res.User.PasswordHash)
			assert.Equal(t, domain.DefaultPreferences(), res.User.Preferences)

			userID, err := svc.ParseToken(res.Token)
			require.NoError(t, err)
			assert.Equal(t, res.User.ID, userID)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	user := testutil.NewTestUser("ann@example.com")
	google := testutil.NewTestUser("g@example.com")
	google.PasswordHash = ""

	tests := []struct {
		name     string
		email    string
		password string
		repoUser *domain.User
		repoErr  error
		errKind  apperr.Kind
	}{
		{name: "valid", email: "ANN@example.com", password: "password123", repoUser: user},
		{name: "wrong password", email: "ann@example.com", password: "nope", repoUser: user, errKind: apperr.KindUnauthorized},
		{name: "unknown email", email: "bob@example.com", password: "password123", repoErr: apperr.NotFound("User not found"), errKind: apperr.KindUnauthorized},
		{name: "google account", email: "g@example.com", password: "", repoUser: google, errKind: apperr.KindUnauthorized},
		{name: "storage failure", email: "ann@example.com", password: "password123", repoErr: apperr.Storage("failed to get user", errors.New("down")), errKind: apperr.KindStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testutil.MockUserRepository)
			users.On("GetByEmail", mock.Anything, normalizeEmail(tt.email)).Return(tt.repoUser, tt.repoErr)

			res, err := newAuthService(users).Login(context.Background(), tt.email, tt.password)

			if tt.errKind != "" {
				assert.Equal(t, tt.errKind, apperr.KindOf(err))
				if tt.errKind == apperr.KindUnauthorized {
					assert.Equal(t, "Invalid credentials", apperr.MessageOf(err))
				}
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, res.Token)
			assert.Equal(t, user.ID, res.User.ID)
		})
	}
}

func TestAuthService_UpdatePreferences(t *testing.T) {
	user := testutil.NewTestUser("ann@example.com")
	prefs := domain.Preferences{DailyGoal: 20, NotificationsEnabled: false, Theme: domain.ThemeDark}

	users := new(testutil.MockUserRepository)
	users.On("UpdatePreferences", mock.Anything, user.ID, prefs).Return(nil)
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	svc := newAuthService(users)
	got, err := svc.UpdatePreferences(context.Background(), user.ID, prefs)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	users.AssertExpectations(t)

	_, err = svc.UpdatePreferences(context.Background(), user.ID, domain.Preferences{DailyGoal: 0, Theme: domain.ThemeDark})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAuthService_LinkTelegram(t *testing.T) {
	user := testutil.NewTestUser("ann@example.com")

	t.Run("links after password check", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		users.On("GetByEmail", mock.Anything, "ann@example.com").Return(user, nil)
		users.On("LinkTelegram", mock.Anything, user.ID, int64(42)).Return(nil)

		got, err := newAuthService(users).LinkTelegram(context.Background(), 42, "ann@example.com", "password123")

		require.NoError(t, err)
		require.NotNil(t, got.TelegramID)
		assert.Equal(t, int64(42), *got.TelegramID)
		users.AssertExpectations(t)
	})

	t.Run("wrong password does not link", func(t *testing.T) {
		users := new(testutil.MockUserRepository)
		users.On("GetByEmail", mock.Anything, "ann@example.com").Return(user, nil)

		_, err := newAuthService(users).LinkTelegram(context.Background(), 42, "ann@example.com", "wrong")

		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		users.AssertNotCalled(t, "LinkTelegram", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_IsLinked(t *testing.T) {
	tests := []struct {
		name     string
		repoUser *domain.User
		repoErr  error
		expected bool
		wantErr  bool
	}{
		{name: "linked", repoUser: testutil.NewTestUser("a@example.com"), expected: true},
		{name: "not linked", repoErr: apperr.NotFound("User not found"), expected: false},
		{name: "storage failure", repoErr: apperr.Storage("failed", errors.New("down")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testutil.MockUserRepository)
			users.On("GetByTelegramID", mock.Anything, int64(7)).Return(tt.repoUser, tt.repoErr)

			linked, err := newAuthService(users).IsLinked(context.Background(), 7)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, linked)
		})
	}
}
