package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/ariss/internal/services"
	"github.com/example/ariss/internal/utils"
)

type DiscountHandler struct {
	discounts *services.DiscountService
}

func NewDiscountHandler(discounts *services.DiscountService) *DiscountHandler {
	return &DiscountHandler{discounts: discounts}
}

func (h *DiscountHandler) Create(c *fiber.Ctx) error {
	var req services.CreateDiscountInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	discount, err := h.discounts.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": discount})
}

// List shows a dealer its own usable coupons; staff see everything and may
// filter by dealer_id and product_id.
func (h *DiscountHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	scope, err := dealerScope(c)
	if err != nil {
		return err
	}
	productID, err := queryUUID(c, "product_id")
	if err != nil {
		return err
	}

	filter := services.DiscountFilter{
		DealerID:   scope,
		ProductID:  productID,
		UsableOnly: scope != nil,
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	}
	if scope == nil {
		if filter.DealerID, err = queryUUID(c, "dealer_id"); err != nil {
			return err
		}
	}

	discounts, total, err := h.discounts.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return listResponse(c, discounts, pg, total)
}

func (h *DiscountHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "discount_id")
	if err != nil {
		return err
	}
	scope, err := dealerScope(c)
	if err != nil {
		return err
	}

	discount, err := h.discounts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if scope != nil && discount.DealerID != *scope {
		return fiber.NewError(fiber.StatusNotFound, "discount not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": discount})
}

func (h *DiscountHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "discount_id")
	if err != nil {
		return err
	}
	if err := h.discounts.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "discount deleted"})
}

// Cleanup runs the expired discount sweep on demand.
func (h *DiscountHandler) Cleanup(c *fiber.Ctx) error {
	deleted, err := h.discounts.SweepExpired(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deleted": deleted})
}
