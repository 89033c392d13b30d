package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/ariss/internal/middleware"
	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/utils"
)

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+param)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

func session(c *fiber.Ctx) (utils.Session, error) {
	s, ok := middleware.GetSession(c)
	if !ok {
		return utils.Session{}, fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return s, nil
}

// dealerScope returns the dealer id a request is confined to: the caller's
// own id for dealers, nil for staff.
func dealerScope(c *fiber.Ctx) (*uuid.UUID, error) {
	s, err := session(c)
	if err != nil {
		return nil, err
	}
	if s.Role == models.RoleDealer {
		return &s.UserID, nil
	}
	return nil, nil
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return &id, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return &b, nil
}

func listResponse(c *fiber.Ctx, data any, pg utils.Pagination, total int64) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       data,
		"pagination": pg.Meta(total),
	})
}
