package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

const (
	subjectConfirmEmail  = "Confirm Your Email"
	subjectResetPassword = "Reset Your Password"
)

// AccountService owns the registration, confirmation and password flows.
type AccountService struct {
	repo             domain.AccountRepository
	tokens           TokenIssuer
	hasher           PasswordHasher
	mailer           domain.Mailer
	log              *zap.Logger
	confirmEmailURL  string
	resetPasswordURL string
}

func NewAccountService(
	repo domain.AccountRepository,
	tokens TokenIssuer,
	hasher PasswordHasher,
	mailer domain.Mailer,
	cfg *config.Config,
	log *zap.Logger,
) *AccountService {
	return &AccountService{
		repo:             repo,
		tokens:           tokens,
		hasher:           hasher,
		mailer:           mailer,
		log:              log,
		confirmEmailURL:  cfg.ConfirmEmailURL,
		resetPasswordURL: cfg.ResetPasswordURL,
	}
}

// Register creates a disabled account with role 1000 and mails a confirmation link.
func (s *AccountService) Register(ctx context.Context, input dto.RegisterInput) (*domain.Account, error) {
	if err := input.Validate(); err != nil {
		return nil, autherror.Wrap(autherror.KindValidation, "Please provide the required details", err)
	}
	if err := checkPasswordLength(input.Password); err != nil {
		return nil, err
	}
	email := dto.NormalizeEmail(input.Email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, emailConflict(email)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := s.tokens.Issue(PurposeConfirmation, TokenPayload{Email: email})
	if err != nil {
		return nil, fmt.Errorf("failed to issue confirmation token: %w", err)
	}

	account := &domain.Account{
		ID:                uuid.New().String(),
		Name:              input.Name,
		Email:             email,
		PasswordHash:      hash,
		BusinessType:      input.BusinessType,
		Roles:             domain.NewRoles(),
		Enabled:           false,
		ConfirmationToken: &token,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, autherror.ErrEmailAlreadyInUse) {
			return nil, emailConflict(email)
		}
		return nil, err
	}

	s.notify(ctx, email, subjectConfirmEmail,
		fmt.Sprintf("Hello %s,\n\nPlease confirm your email address by following this link:\n%s\n\nThe link expires in %s.",
			account.Name, buildLink(s.confirmEmailURL, token), s.tokens.TTL(PurposeConfirmation)))

	return account, nil
}

// ConfirmEmail enables the account bound to token. A token can be used once.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return autherror.New(autherror.KindValidation, "Please check the url link sent to your inbox")
	}

	payload, err := s.tokens.Verify(PurposeConfirmation, token)
	if err != nil {
		return err
	}

	account, err := s.repo.GetByEmail(ctx, payload.Email)
	if err != nil {
		return err
	}
	if account == nil {
		return autherror.ErrAccountNotFound
	}
	if !account.HasPendingConfirmation(token) {
		return autherror.ErrConfirmationNotFound
	}

	confirmed, err := s.repo.MarkConfirmed(ctx, account.ID, token)
	if err != nil {
		return err
	}
	if !confirmed {
		return autherror.ErrConfirmationNotFound
	}

	s.log.Info("email confirmed", zap.String("account_id", account.ID))
	return nil
}

// ForgotPassword mails a reset link when the address is known. Callers see
// the same outcome either way.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = dto.NormalizeEmail(email)
	if email == "" {
		return autherror.New(autherror.KindValidation, "Please provide your email address")
	}

	token, err := s.tokens.Issue(PurposePasswordReset, TokenPayload{Email: email})
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		s.log.Debug("password reset requested for unknown email")
		return nil
	}

	s.notify(ctx, email, subjectResetPassword,
		fmt.Sprintf("Hello %s,\n\nUse the following link to reset your password:\n%s\n\nThe link expires in %s.",
			account.Name, buildLink(s.resetPasswordURL, token), s.tokens.TTL(PurposePasswordReset)))

	return nil
}

// ResetPassword replaces the password of the account bound to a reset token.
func (s *AccountService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error {
	if err := input.Validate(); err != nil {
		return autherror.Wrap(autherror.KindValidation, "Please provide new password", err)
	}
	if err := checkPasswordLength(input.NewPassword); err != nil {
		return err
	}

	payload, err := s.tokens.Verify(PurposePasswordReset, input.Token)
	if err != nil {
		return err
	}

	account, err := s.repo.GetByEmail(ctx, payload.Email)
	if err != nil {
		return err
	}
	if account == nil {
		return autherror.ErrAccountNotFound
	}

	return s.setPassword(ctx, account.ID, input.NewPassword)
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, input dto.ChangePasswordInput) error {
	if err := input.Validate(); err != nil {
		return autherror.Wrap(autherror.KindValidation, "Provide user Id, old password and new password", err)
	}
	if err := checkPasswordLength(input.NewPassword); err != nil {
		return err
	}

	account, err := s.repo.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if account == nil {
		return autherror.ErrAccountNotFound
	}
	if !canChangePassword(ctx, account) {
		return autherror.ErrAccessDenied
	}

	if !s.hasher.Compare(account.PasswordHash, input.OldPassword) {
		return autherror.ErrOldPasswordMismatch
	}

	return s.setPassword(ctx, account.ID, input.NewPassword)
}

// canChangePassword admits the account owner and admins.
func canChangePassword(ctx context.Context, account *domain.Account) bool {
	principal, ok := domain.PrincipalFrom(ctx)
	if !ok {
		return false
	}
	return principal.Email == account.Email || principal.Roles.Has(constant.RoleAdmin)
}

func (s *AccountService) setPassword(ctx context.Context, id, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// notify sends mail without failing the calling operation.
func (s *AccountService) notify(ctx context.Context, to, subject, body string) {
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		s.log.Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

func emailConflict(email string) error {
	return autherror.Wrap(autherror.KindConflict,
		fmt.Sprintf("Account with email %s exists. Please proceed to login", email),
		autherror.ErrEmailAlreadyInUse)
}

func buildLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
