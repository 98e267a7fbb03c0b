package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"esltrainer/internal/apperr"
)

const (
	stateAudience = "oauth-state"
	stateTTL      = 10 * time.Minute
)

// OAuthIntent is what the client wants from a Google round trip
type OAuthIntent string

const (
	IntentSignup OAuthIntent = "signup"
	IntentSignin OAuthIntent = "signin"
)

// Valid reports whether i is a known intent
func (i OAuthIntent) Valid() bool {
	return i == IntentSignup || i == IntentSignin
}

type stateClaims struct {
	Intent OAuthIntent `json:"intent"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens and OAuth state values
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer whose access tokens live for ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the access token lifetime
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue returns an access token for userID
func (t *TokenIssuer) Issue(userID uuid.UUID) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Parse verifies an access token and returns the user id it was issued for
func (t *TokenIssuer) Parse(tokenString string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindUnauthorized, "Token is not valid", err)
	}
	// state tokens carry an audience and must not pass as access tokens
	if len(claims.Audience) > 0 {
		return uuid.Nil, apperr.Unauthorized("Token is not valid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindUnauthorized, "Token is not valid", err)
	}
	return userID, nil
}

// IssueState signs a short-lived OAuth state carrying intent
func (t *TokenIssuer) IssueState(intent OAuthIntent) (string, error) {
	now := t.now()
	claims := stateClaims{
		Intent: intent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return state, nil
}

// ParseState verifies an OAuth state and returns its intent
func (t *TokenIssuer) ParseState(state string) (OAuthIntent, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", apperr.New(apperr.KindUnauthorized, "OAuth state is not valid", err)
	}
	if !claims.Intent.Valid() {
		return "", apperr.Unauthorized("OAuth state is not valid")
	}
	return claims.Intent, nil
}

func (t *TokenIssuer) keyFunc(*jwt.Token) (interface{}, error) {
	return t.secret, nil
}
