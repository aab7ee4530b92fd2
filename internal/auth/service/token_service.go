package service

//go:generate mockgen -destination=../../mocks/mock_token_issuer.go -package=mocks github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/service TokenIssuer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
)

// Purpose binds a token to the flow it was issued for.
type Purpose string

const (
	PurposeConfirmation  Purpose = "email-confirmation"
	PurposePasswordReset Purpose = "password-reset"
	PurposeAccess        Purpose = "access"
	PurposeRefresh       Purpose = "refresh"
)

type TokenPayload struct {
	Email string
	Roles domain.Roles
}

type TokenIssuer interface {
	Issue(purpose Purpose, payload TokenPayload) (string, error)
	Verify(purpose Purpose, token string) (*TokenPayload, error)
	TTL(purpose Purpose) time.Duration
}

type TokenTTL struct {
	Confirmation  time.Duration
	PasswordReset time.Duration
	Access        time.Duration
	Refresh       time.Duration
}

// TokenTTLFromConfig converts the minute-based settings into durations.
func TokenTTLFromConfig(cfg *config.Config) TokenTTL {
	return TokenTTL{
		Confirmation:  time.Duration(cfg.ConfirmExpiryMin) * time.Minute,
		PasswordReset: time.Duration(cfg.ResetExpiryMin) * time.Minute,
		Access:        time.Duration(cfg.AccessExpiryMin) * time.Minute,
		Refresh:       time.Duration(cfg.RefreshExpiryMin) * time.Minute,
	}
}

// TokenService signs confirmation, reset and access tokens with the primary
// secret and refresh tokens with the refresh secret.
type TokenService struct {
	PrimarySecret      string
	RefreshTokenSecret string
	Expiry             TokenTTL
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	Purpose Purpose      `json:"purpose"`
	Email   string       `json:"email"`
	Roles   domain.Roles `json:"roles,omitempty"`
}

func NewTokenService(primarySecret, refreshSecret string, ttl TokenTTL) *TokenService {
	return &TokenService{
		PrimarySecret:      primarySecret,
		RefreshTokenSecret: refreshSecret,
		Expiry:             ttl,
	}
}

func (ts *TokenService) secret(purpose Purpose) (string, error) {
	switch purpose {
	case PurposeConfirmation, PurposePasswordReset, PurposeAccess:
		return ts.PrimarySecret, nil
	case PurposeRefresh:
		return ts.RefreshTokenSecret, nil
	default:
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
}

func (ts *TokenService) TTL(purpose Purpose) time.Duration {
	switch purpose {
	case PurposeConfirmation:
		return ts.Expiry.Confirmation
	case PurposePasswordReset:
		return ts.Expiry.PasswordReset
	case PurposeAccess:
		return ts.Expiry.Access
	case PurposeRefresh:
		return ts.Expiry.Refresh
	default:
		return 0
	}
}

// Issue signs a token for purpose. Roles are only embedded in access tokens.
func (ts *TokenService) Issue(purpose Purpose, payload TokenPayload) (string, error) {
	secret, err := ts.secret(purpose)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := JWTCustomClaims{
		Purpose: purpose,
		Email:   payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Email,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.TTL(purpose))),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if purpose == PurposeAccess {
		claims.Roles = domain.NewRoles(payload.Roles...)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify parses tokenString and checks signature, expiry and purpose.
func (ts *TokenService) Verify(purpose Purpose, tokenString string) (*TokenPayload, error) {
	secret, err := ts.secret(purpose)
	if err != nil {
		return nil, err
	}

	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, autherror.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, autherror.ErrTokenMalformed
		default:
			return nil, autherror.ErrTokenInvalid
		}
	}

	if !token.Valid || claims.Purpose != purpose || claims.Email == "" {
		return nil, autherror.ErrTokenInvalid
	}

	payload := &TokenPayload{Email: claims.Email}
	if purpose == PurposeAccess {
		payload.Roles = domain.NewRoles(claims.Roles...)
	}
	return payload, nil
}
