package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/logger"
	"github.com/example/ariss/internal/services"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation:   fiber.StatusBadRequest,
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindConflict:     fiber.StatusConflict,
	services.KindUnauthorized: fiber.StatusUnauthorized,
	services.KindForbidden:    fiber.StatusForbidden,
}

// ErrorHandler renders every error as {success:false, message}. Unknown
// errors are logged and reported as 500 without detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var (
		domainErr *services.Error
		fiberErr  *fiber.Error
	)
	switch {
	case errors.As(err, &domainErr):
		if s, ok := kindStatus[domainErr.Kind]; ok {
			status = s
		}
		message = domainErr.Message
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = fiber.StatusNotFound
		message = "resource not found"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		status = fiber.StatusConflict
		message = "resource is still referenced by other records"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		status = fiber.StatusConflict
		message = "resource already exists"
	}

	if status >= fiber.StatusInternalServerError {
		logger.FromCtx(c).Error("request failed", zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
