package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
	"esltrainer/internal/repository"
)

const minPasswordLength = 6

// RegisterInput holds sign-up fields
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Level    string
}

// AuthResult is returned after a successful sign-up or sign-in
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// AuthService handles authentication logic
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	logger   *zap.Logger
	cost     int
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, tokens *TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an account and returns an access token
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" {
		return nil, apperr.Validation("Name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperr.Validation("Please include a valid email")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Please enter a password with 6 or more characters")
	}
	level, err := domain.ParseLevel(in.Level)
	if err != nil {
		return nil, apperr.Validation("Invalid level")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, "", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Level:        level,
		Preferences:  domain.DefaultPreferences(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login verifies credentials and returns an access token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Authenticate checks an email and password pair
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	// accounts created through Google have no password
	if user.PasswordHash == "" {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return user, nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdatePreferences validates and stores new preferences
func (s *AuthService) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs domain.Preferences) (*domain.User, error) {
	if err := prefs.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.userRepo.UpdatePreferences(ctx, userID, prefs); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ParseToken resolves an access token to a user id
func (s *AuthService) ParseToken(token string) (uuid.UUID, error) {
	return s.tokens.Parse(token)
}

// LinkTelegram attaches a Telegram account after checking the user's password
func (s *AuthService) LinkTelegram(ctx context.Context, telegramID int64, email, password string) (*domain.User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.LinkTelegram(ctx, user.ID, telegramID); err != nil {
		return nil, err
	}
	user.TelegramID = &telegramID

	s.logger.Info("Telegram account linked",
		zap.String("user_id", user.ID.String()),
		zap.Int64("telegram_id", telegramID),
	)
	return user, nil
}

// UserByTelegram returns the account linked to a Telegram user
func (s *AuthService) UserByTelegram(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// IsLinked reports whether a Telegram account is linked to a user
func (s *AuthService) IsLinked(ctx context.Context, telegramID int64) (bool, error) {
	_, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, "", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
