package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/service"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/mocks"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

const testIP = "192.168.1.1"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "primary-secret",
		RefreshTokenSecret: "refresh-secret",
		ConfirmExpiryMin:   60,
		ResetExpiryMin:     1440,
		AccessExpiryMin:    15,
		RefreshExpiryMin:   1440,
		BcryptCost:         bcrypt.MinCost,
		LoginMaxAttempts:   5,
		LoginWindowMinutes: 15,
		ConfirmEmailURL:    "http://localhost:8080/api/client/confirm-email",
		ResetPasswordURL:   "http://localhost:3000/registration",
		AdminEmail:         "admin@example.com",
		AdminPassword:      "adminpassword",
	}
}

type fixture struct {
	cfg    *config.Config
	repo   *mocks.MockAccountRepository
	mailer *mocks.MockMailer
	tokens *service.TokenService
	hasher *service.BcryptHasher
	log    *zap.Logger
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	cfg := testConfig()
	core, logs := observer.New(zap.DebugLevel)

	return &fixture{
		cfg:    cfg,
		repo:   mocks.NewMockAccountRepository(ctrl),
		mailer: mocks.NewMockMailer(ctrl),
		tokens: service.NewTokenService(cfg.JWTSecret, cfg.RefreshTokenSecret, service.TokenTTLFromConfig(cfg)),
		hasher: service.NewBcryptHasher(cfg.BcryptCost),
		log:    zap.New(core),
		logs:   logs,
	}
}

func (f *fixture) accounts() *service.AccountService {
	return service.NewAccountService(f.repo, f.tokens, f.hasher, f.mailer, f.cfg, f.log)
}

func (f *fixture) sessions() *service.SessionService {
	return service.NewSessionService(f.repo, f.tokens, f.hasher, f.cfg, f.log)
}

func (f *fixture) admin() *service.AdminService {
	return service.NewAdminService(f.repo, f.hasher, f.cfg, f.log)
}

func (f *fixture) account(t *testing.T, password string, enabled bool) *domain.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &domain.Account{
		ID:           "2f1d7c8e-5b7a-4a63-9c1e-0f6d2b9a4e11",
		Name:         "Jane",
		Email:        "test@example.com",
		PasswordHash: hash,
		BusinessType: "Retail",
		Roles:        domain.NewRoles(),
		Enabled:      enabled,
		CreatedAt:    time.Now().UTC(),
	}
}

var errEmailTaken = autherror.ErrEmailAlreadyInUse

// memoryRepository keeps accounts in a map so multi-step flows can be exercised
// end to end.
type memoryRepository struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	attempts []attempt
}

type attempt struct {
	email   string
	ip      string
	success bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{accounts: map[string]domain.Account{}}
}

func (r *memoryRepository) find(match func(domain.Account) bool) *domain.Account {
	for _, a := range r.accounts {
		if match(a) {
			cp := a
			return &cp
		}
	}
	return nil
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(a domain.Account) bool { return a.Email == email }), nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *memoryRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(func(a domain.Account) bool { return a.Email == account.Email }) != nil {
		return errEmailTaken
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *memoryRepository) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = *account
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[id]
	delete(r.accounts, id)
	return ok, nil
}

func (r *memoryRepository) MarkConfirmed(_ context.Context, id, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || !a.HasPendingConfirmation(token) {
		return false, nil
	}
	a.Enabled = true
	a.ConfirmationToken = nil
	r.accounts[id] = a
	return true, nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.accounts[id]
	a.PasswordHash = passwordHash
	r.accounts[id] = a
	return nil
}

func (r *memoryRepository) StoreRefreshToken(_ context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.accounts[id]
	a.RefreshToken = token
	r.accounts[id] = a
	return nil
}

func (r *memoryRepository) ExistsWithRole(_ context.Context, role constant.RoleCode) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(a domain.Account) bool { return a.Roles.Has(role) }) != nil, nil
}

func (r *memoryRepository) ListByRole(_ context.Context, role constant.RoleCode) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Account
	for _, a := range r.accounts {
		if a.Roles.Has(role) {
			cp := a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *memoryRepository) RecordLoginAttempt(_ context.Context, email, ip string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt{email: email, ip: ip, success: success})
	return nil
}

func (r *memoryRepository) CountRecentFailedAttempts(_ context.Context, email, ip string, _ int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, at := range r.attempts {
		if at.email == email && at.ip == ip && !at.success {
			n++
		}
	}
	return n, nil
}

// outbox records every message handed to the mailer.
type outbox struct {
	mu   sync.Mutex
	sent []message
}

type message struct {
	to, subject, body string
}

func (o *outbox) Send(_ context.Context, to, subject, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, message{to: to, subject: subject, body: body})
	return nil
}

func (o *outbox) last() message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return message{}
	}
	return o.sent[len(o.sent)-1]
}
