package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

type AdminService struct {
	repo          domain.AccountRepository
	hasher        PasswordHasher
	log           *zap.Logger
	adminEmail    string
	adminPassword string
}

func NewAdminService(repo domain.AccountRepository, hasher PasswordHasher, cfg *config.Config, log *zap.Logger) *AdminService {
	return &AdminService{
		repo:          repo,
		hasher:        hasher,
		log:           log,
		adminEmail:    dto.NormalizeEmail(cfg.AdminEmail),
		adminPassword: cfg.AdminPassword,
	}
}

// ListClients returns every account holding the standard role.
func (s *AdminService) ListClients(ctx context.Context) ([]*domain.Account, error) {
	return s.repo.ListByRole(ctx, constant.RoleClient)
}

func (s *AdminService) UpdateClient(ctx context.Context, id string, input dto.UpdateClientInput) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, autherror.ErrInvalidClientID
	}
	if err := input.Validate(); err != nil {
		return nil, autherror.Wrap(autherror.KindValidation, err.Error(), err)
	}
	if domain.Roles(input.Roles).Has(constant.RoleAdmin) {
		return nil, autherror.ErrAdminRoleLocked
	}

	account, err := s.client(ctx, id)
	if err != nil {
		return nil, err
	}

	update := input.ToUpdate()
	if update.Email != nil && *update.Email != account.Email {
		other, err := s.repo.GetByEmail(ctx, *update.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != account.ID {
			return nil, emailConflict(*update.Email)
		}
	}

	update.Apply(account)
	if err := s.repo.Update(ctx, account); err != nil {
		if errors.Is(err, autherror.ErrEmailAlreadyInUse) {
			return nil, emailConflict(account.Email)
		}
		return nil, err
	}

	return account, nil
}

func (s *AdminService) DeleteClient(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return autherror.ErrInvalidClientID
	}

	if _, err := s.client(ctx, id); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return autherror.ErrClientNotFound
	}
	return nil
}

// client loads a non-admin account. Admin accounts report as not found.
func (s *AdminService) client(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Roles.Has(constant.RoleAdmin) {
		return nil, autherror.ErrClientNotFound
	}
	return account, nil
}

// EnsureAdmin creates the bootstrap admin account unless one already exists.
func (s *AdminService) EnsureAdmin(ctx context.Context) error {
	exists, err := s.repo.ExistsWithRole(ctx, constant.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}
	if exists {
		s.log.Info("admin user already exists")
		return nil
	}

	hash, err := s.hasher.Hash(s.adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &domain.Account{
		ID:           uuid.New().String(),
		Name:         constant.AdminName,
		Email:        s.adminEmail,
		PasswordHash: hash,
		BusinessType: constant.AdminBusinessType,
		Roles:        domain.NewRoles(constant.RoleAdmin),
		Enabled:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.log.Info("admin user created", zap.String("email", admin.Email))
	return nil
}
