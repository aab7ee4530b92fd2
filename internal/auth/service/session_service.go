package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

var loginEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SessionService issues and rotates token pairs. Each account keeps a single
// refresh token; a new login replaces the previous one.
type SessionService struct {
	repo               domain.AccountRepository
	tokens             TokenIssuer
	hasher             PasswordHasher
	log                *zap.Logger
	loginMaxAttempts   int
	loginWindowMinutes int
}

func NewSessionService(
	repo domain.AccountRepository,
	tokens TokenIssuer,
	hasher PasswordHasher,
	cfg *config.Config,
	log *zap.Logger,
) *SessionService {
	return &SessionService{
		repo:               repo,
		tokens:             tokens,
		hasher:             hasher,
		log:                log,
		loginMaxAttempts:   cfg.LoginMaxAttempts,
		loginWindowMinutes: cfg.LoginWindowMinutes,
	}
}

func (s *SessionService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenPair, error) {
	if err := input.Validate(); err != nil {
		return nil, autherror.Wrap(autherror.KindValidation, "Email and password are required", err)
	}
	email := dto.NormalizeEmail(input.Email)

	if s.loginMaxAttempts > 0 {
		failed, err := s.repo.CountRecentFailedAttempts(ctx, email, input.IPAddress, s.loginWindowMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to check login attempts: %w", err)
		}
		if failed >= s.loginMaxAttempts {
			return nil, autherror.ErrTooManyLoginAttempts
		}
	}

	var account *domain.Account
	if loginEmailPattern.MatchString(email) {
		var err error
		account, err = s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
	}
	if account == nil {
		s.recordAttempt(ctx, email, input.IPAddress, false)
		return nil, autherror.ErrUserDoesNotExist
	}

	if !account.Enabled {
		return nil, autherror.ErrAccountNotConfirmed
	}

	if !s.hasher.Compare(account.PasswordHash, input.Password) {
		s.recordAttempt(ctx, email, input.IPAddress, false)
		return nil, autherror.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, err
	}

	s.recordAttempt(ctx, email, input.IPAddress, true)
	return pair, nil
}

// Refresh rotates the refresh token presented by the client.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	if refreshToken == "" {
		return nil, autherror.ErrRefreshTokenNotFound
	}

	payload, err := s.tokens.Verify(PurposeRefresh, refreshToken)
	if err != nil {
		return nil, autherror.ErrRefreshTokenRejected
	}

	account, err := s.repo.GetByEmail(ctx, payload.Email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, autherror.ErrRefreshTokenRejected
	}
	if !sameToken(account.RefreshToken, refreshToken) {
		s.log.Warn("refresh token does not match stored value", zap.String("account_id", account.ID))
		return nil, autherror.ErrRefreshTokenRevoked
	}
	if !account.Enabled {
		return nil, autherror.ErrAccountNotConfirmed
	}

	return s.issuePair(ctx, account)
}

// Logout forgets the stored refresh token when it matches the one presented.
// Unknown or invalid tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	payload, err := s.tokens.Verify(PurposeRefresh, refreshToken)
	if err != nil {
		return nil
	}

	account, err := s.repo.GetByEmail(ctx, payload.Email)
	if err != nil {
		return err
	}
	if account == nil || !sameToken(account.RefreshToken, refreshToken) {
		return nil
	}

	return s.repo.StoreRefreshToken(ctx, account.ID, nil)
}

func (s *SessionService) issuePair(ctx context.Context, account *domain.Account) (*dto.TokenPair, error) {
	accessToken, err := s.tokens.Issue(PurposeAccess, TokenPayload{
		Email: account.Email,
		Roles: domain.NewRoles(account.Roles...),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokens.Issue(PurposeRefresh, TokenPayload{Email: account.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if err := s.repo.StoreRefreshToken(ctx, account.ID, &refreshToken); err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        constant.DefaultTokenType,
		ExpiresIn:        int(s.tokens.TTL(PurposeAccess).Seconds()),
		RefreshExpiresIn: int(s.tokens.TTL(PurposeRefresh).Seconds()),
	}, nil
}

func (s *SessionService) recordAttempt(ctx context.Context, email, ip string, success bool) {
	if err := s.repo.RecordLoginAttempt(ctx, email, ip, success); err != nil {
		s.log.Warn("failed to record login attempt", zap.Bool("success", success), zap.Error(err))
	}
}

func sameToken(stored *string, presented string) bool {
	return stored != nil && subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
