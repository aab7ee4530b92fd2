package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/service"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

type AuthHandler struct {
	accounts *service.AccountService
	sessions *service.SessionService
	log      *zap.Logger
}

func NewAuthHandler(accounts *service.AccountService, sessions *service.SessionService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, h.log, errInvalidBody)
	}

	if _, err := h.accounts.Register(c.UserContext(), input); err != nil {
		return writeError(c, h.log, err)
	}

	return writeMessage(c, fiber.StatusCreated, constant.MsgRegistrationPending)
}

func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	if err := h.accounts.ConfirmEmail(c.UserContext(), c.Query("token")); err != nil {
		return writeError(c, h.log, err)
	}
	return writeMessage(c, fiber.StatusOK, constant.MsgEmailConfirmed)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, h.log, errInvalidBody)
	}
	input.IPAddress = c.IP()

	pair, err := h.sessions.Login(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return h.writeTokens(c, pair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	pair, err := h.sessions.Refresh(c.UserContext(), c.Cookies(constant.RefreshCookieName))
	if err != nil {
		return writeError(c, h.log, err)
	}

	return h.writeTokens(c, pair)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.UserContext(), c.Cookies(constant.RefreshCookieName)); err != nil {
		h.log.Warn("failed to revoke refresh token on logout", zap.Error(err))
	}

	c.Cookie(refreshCookie("", time.Unix(0, 0)))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input dto.ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, h.log, errInvalidBody)
	}

	if err := h.accounts.ForgotPassword(c.UserContext(), input.Email); err != nil {
		return writeError(c, h.log, err)
	}

	return writeMessage(c, fiber.StatusOK, constant.MsgPasswordResetSent)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input dto.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, h.log, errInvalidBody)
	}
	input.Token = c.Query("token")

	if err := h.accounts.ResetPassword(c.UserContext(), input); err != nil {
		return writeError(c, h.log, err)
	}

	return writeMessage(c, fiber.StatusOK, constant.MsgPasswordReset)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, h.log, errInvalidBody)
	}

	ctx := c.UserContext()
	if err := h.accounts.ChangePassword(ctx, input); err != nil {
		return writeError(c, h.log, err)
	}

	if principal, ok := domain.PrincipalFrom(ctx); ok {
		h.log.Info("password changed", zap.String("account_id", input.UserID), zap.String("by", principal.Email))
	}
	return writeMessage(c, fiber.StatusOK, constant.MsgPasswordChanged)
}

func (h *AuthHandler) writeTokens(c *fiber.Ctx, pair *dto.TokenPair) error {
	c.Cookie(refreshCookie(pair.RefreshToken, time.Time{}))
	return c.Status(fiber.StatusOK).JSON(dto.TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   pair.ExpiresIn,
	})
}

// refreshCookie is http-only and cross-site. A non-zero expires clears it.
func refreshCookie(value string, expires time.Time) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     constant.RefreshCookieName,
		Value:    value,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
	if expires.IsZero() {
		cookie.MaxAge = constant.RefreshCookieMaxAge
	} else {
		cookie.Expires = expires
	}
	return cookie
}
