package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
	"esltrainer/internal/repository"
)

// GoogleProfile is the subset of the Google account used for sign-in
type GoogleProfile struct {
	Email    string
	Name     string
	Verified bool
}

// OAuthExchanger runs the provider side of the authorization code flow
type OAuthExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*GoogleProfile, error)
}

// GoogleOAuth implements OAuthExchanger against Google accounts
type GoogleOAuth struct {
	conf *oauth2.Config
}

// NewGoogleOAuth creates a Google OAuth client
func NewGoogleOAuth(clientID, clientSecret, callbackURL string) *GoogleOAuth {
	return &GoogleOAuth{conf: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{googleoauth.UserinfoProfileScope, googleoauth.UserinfoEmailScope},
		Endpoint:     google.Endpoint,
	}}
}

// AuthCodeURL returns the consent page URL carrying state
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades the code for a token and loads the user's profile
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(g.conf.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	verified := info.VerifiedEmail == nil || *info.VerifiedEmail
	return &GoogleProfile{Email: info.Email, Name: info.Name, Verified: verified}, nil
}

// OAuthService signs users in or up with Google. The client's intent travels
// in a signed, short-lived state value instead of server-side session data.
type OAuthService struct {
	userRepo  repository.UserRepository
	tokens    *TokenIssuer
	exchanger OAuthExchanger
	logger    *zap.Logger
}

// NewOAuthService creates a new OAuth service
func NewOAuthService(userRepo repository.UserRepository, tokens *TokenIssuer, exchanger OAuthExchanger, logger *zap.Logger) *OAuthService {
	return &OAuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		exchanger: exchanger,
		logger:    logger,
	}
}

// AuthURL returns the provider URL for intent
func (s *OAuthService) AuthURL(intent OAuthIntent) (string, error) {
	if !intent.Valid() {
		return "", apperr.Validation("authType must be signup or signin")
	}
	state, err := s.tokens.IssueState(intent)
	if err != nil {
		return "", apperr.New(apperr.KindInternal, "", err)
	}
	return s.exchanger.AuthCodeURL(state), nil
}

// Complete verifies state, exchanges code and applies the declared intent
func (s *OAuthService) Complete(ctx context.Context, code, state string) (*AuthResult, error) {
	intent, err := s.tokens.ParseState(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperr.Validation("authorization code is required")
	}

	profile, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("Google code exchange failed", zap.Error(err))
		return nil, apperr.Upstream("Google sign-in failed", err)
	}
	if profile.Email == "" || !profile.Verified {
		return nil, apperr.Unauthorized("Google account has no verified email")
	}

	email := normalizeEmail(profile.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	exists := err == nil

	switch intent {
	case IntentSignin:
		if !exists {
			return nil, apperr.NotFound("No user found with this email")
		}
	case IntentSignup:
		if exists {
			return nil, apperr.Conflict("User already exists")
		}
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		user = &domain.User{
			Name:        name,
			Email:       email,
			Level:       domain.LevelBeginner,
			Preferences: domain.DefaultPreferences(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("User registered with Google", zap.String("user_id", user.ID.String()))
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, "", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
