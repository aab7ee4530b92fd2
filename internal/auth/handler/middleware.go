package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/service"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

type Middleware struct {
	tokens service.TokenIssuer
	log    *zap.Logger
}

func NewMiddleware(tokens service.TokenIssuer, log *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, log: log}
}

// VerifyJWT authenticates the bearer access token and stores the principal
// on the request's user context.
func (m *Middleware) VerifyJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return writeError(c, m.log, autherror.ErrMissingBearer)
		}

		payload, err := m.tokens.Verify(service.PurposeAccess, token)
		if err != nil {
			return writeError(c, m.log, autherror.Wrap(autherror.KindForbidden, autherror.MessageOf(err), err))
		}

		c.SetUserContext(domain.WithPrincipal(c.UserContext(), domain.Principal{
			Email: payload.Email,
			Roles: payload.Roles,
		}))
		return c.Next()
	}
}

// RequireRoles admits principals holding at least one of roles.
func (m *Middleware) RequireRoles(roles ...constant.RoleCode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := domain.PrincipalFrom(c.UserContext())
		if !ok || !principal.Roles.HasAny(roles...) {
			return writeError(c, m.log, autherror.ErrAccessDenied)
		}
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, constant.DefaultTokenType+" ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
