package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
)

const msgInternal = "Internal server error"

func statusFor(kind autherror.Kind) int {
	switch kind {
	case autherror.KindValidation:
		return fiber.StatusBadRequest
	case autherror.KindConflict:
		return fiber.StatusConflict
	case autherror.KindUnauthorized:
		return fiber.StatusUnauthorized
	case autherror.KindForbidden:
		return fiber.StatusForbidden
	case autherror.KindNotFound:
		return fiber.StatusNotFound
	case autherror.KindTooManyRequests:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError converts err into a status code and a {"message"} body.
// Internal failures are logged and never echoed to the caller.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	kind := autherror.KindOf(err)
	msg := autherror.MessageOf(err)

	if kind == autherror.KindInternal {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		msg = msgInternal
	}

	return c.Status(statusFor(kind)).JSON(dto.MessageResponse{Message: msg})
}

func writeMessage(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.MessageResponse{Message: msg})
}

var errInvalidBody = autherror.New(autherror.KindValidation, "Invalid request body")
