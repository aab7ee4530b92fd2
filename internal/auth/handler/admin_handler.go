package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/service"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

type AdminHandler struct {
	admin *service.AdminService
	log   *zap.Logger
}

func NewAdminHandler(admin *service.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

func (h *AdminHandler) ListClients(c *fiber.Ctx) error {
	accounts, err := h.admin.ListClients(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}

	clients := make([]dto.ClientOutput, 0, len(accounts))
	for _, a := range accounts {
		clients = append(clients, dto.NewClientOutput(a))
	}
	return c.Status(fiber.StatusOK).JSON(clients)
}

func (h *AdminHandler) UpdateClient(c *fiber.Ctx) error {
	var input dto.UpdateClientInput
	if err := c.BodyParser(&input); err != nil {
		return writeError(c, h.log, errInvalidBody)
	}

	account, err := h.admin.UpdateClient(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.NewAccountOutput(account))
}

func (h *AdminHandler) DeleteClient(c *fiber.Ctx) error {
	if err := h.admin.DeleteClient(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return writeMessage(c, fiber.StatusOK, constant.MsgClientDeleted)
}
