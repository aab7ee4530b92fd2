package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/handler"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/service"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/mocks"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

const (
	accountID = "2f1d7c8e-5b7a-4a63-9c1e-0f6d2b9a4e11"
	// app.Test requests arrive from this address.
	testIP = "0.0.0.0"
)

type testEnv struct {
	app    *fiber.App
	cfg    *config.Config
	repo   *mocks.MockAccountRepository
	mailer *mocks.MockMailer
	tokens *service.TokenService
	hasher *service.BcryptHasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := &config.Config{
		JWTSecret:          "primary-secret",
		RefreshTokenSecret: "refresh-secret",
		ConfirmExpiryMin:   60,
		ResetExpiryMin:     1440,
		AccessExpiryMin:    60,
		RefreshExpiryMin:   1440,
		LoginMaxAttempts:   5,
		LoginWindowMinutes: 15,
		ConfirmEmailURL:    "http://localhost:8080/api/client/confirm-email",
		ResetPasswordURL:   "http://localhost:3000/registration",
		AdminEmail:         "admin@example.com",
		AdminPassword:      "adminpassword",
	}
	log := zap.NewNop()
	repo := mocks.NewMockAccountRepository(ctrl)
	mailer := mocks.NewMockMailer(ctrl)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.RefreshTokenSecret, service.TokenTTLFromConfig(cfg))
	hasher := service.NewBcryptHasher(bcrypt.MinCost)

	authHandler := handler.NewAuthHandler(
		service.NewAccountService(repo, tokens, hasher, mailer, cfg, log),
		service.NewSessionService(repo, tokens, hasher, cfg, log),
		log,
	)
	adminHandler := handler.NewAdminHandler(service.NewAdminService(repo, hasher, cfg, log), log)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, adminHandler, handler.NewMiddleware(tokens, log))

	return &testEnv{app: app, cfg: cfg, repo: repo, mailer: mailer, tokens: tokens, hasher: hasher}
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set(fiber.HeaderAuthorization, "Bearer "+token) }
}

func withCookie(value string) requestOption {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: constant.RefreshCookieName, Value: value}) }
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) accessToken(t *testing.T, roles ...constant.RoleCode) string {
	t.Helper()
	return e.accessTokenFor(t, "caller@example.com", roles...)
}

func (e *testEnv) accessTokenFor(t *testing.T, email string, roles ...constant.RoleCode) string {
	t.Helper()
	token, err := e.tokens.Issue(service.PurposeAccess, service.TokenPayload{Email: email, Roles: roles})
	require.NoError(t, err)
	return token
}

func (e *testEnv) account(t *testing.T, password string, enabled bool) *domain.Account {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	return &domain.Account{
		ID:           accountID,
		Name:         "Jane",
		Email:        "test@example.com",
		PasswordHash: hash,
		BusinessType: "Retail",
		Roles:        domain.NewRoles(),
		Enabled:      enabled,
		CreatedAt:    time.Now().UTC(),
	}
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func message(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, resp, &body)
	return body.Message
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == constant.RefreshCookieName {
			return c
		}
	}
	return nil
}
