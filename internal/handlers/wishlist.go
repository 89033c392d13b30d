package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/ariss/internal/services"
)

type WishlistHandler struct {
	wishlist *services.WishlistService
}

func NewWishlistHandler(wishlist *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

type wishlistRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

func (h *WishlistHandler) Add(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	var req wishlistRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.wishlist.Add(c.UserContext(), s.UserID, req.ProductID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	items, err := h.wishlist.List(c.UserContext(), s.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.wishlist.Remove(c.UserContext(), s.UserID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "removed from wishlist"})
}
