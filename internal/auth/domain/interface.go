package domain

//go:generate mockgen -destination=../../mocks/mock_account_repository.go -package=mocks github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain AccountRepository,Mailer

import (
	"context"

	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

// AccountRepository is the credential store. Lookups return (nil, nil) when
// no account matches.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id string) (bool, error)
	MarkConfirmed(ctx context.Context, id, token string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	StoreRefreshToken(ctx context.Context, id string, token *string) error
	ExistsWithRole(ctx context.Context, role constant.RoleCode) (bool, error)
	ListByRole(ctx context.Context, role constant.RoleCode) ([]*Account, error)
	RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error
	CountRecentFailedAttempts(ctx context.Context, email, ip string, windowMinutes int) (int, error)
}

// Mailer delivers plain-text notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
