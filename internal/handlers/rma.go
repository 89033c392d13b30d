package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/ariss/internal/middleware"
	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/services"
	"github.com/example/ariss/internal/utils"
)

type RMAHandler struct {
	rmas *services.RMAService
}

func NewRMAHandler(rmas *services.RMAService) *RMAHandler {
	return &RMAHandler{rmas: rmas}
}

// Create opens a return request. A signed-in dealer is attached to it.
func (h *RMAHandler) Create(c *fiber.Ctx) error {
	var req services.CreateRMAInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.DealerID = nil
	if s, ok := middleware.GetSession(c); ok && s.Role == models.RoleDealer {
		req.DealerID = &s.UserID
	}

	rma, err := h.rmas.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": rma})
}

func (h *RMAHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	dealerID, err := queryUUID(c, "dealer_id")
	if err != nil {
		return err
	}

	rmas, total, err := h.rmas.List(c.UserContext(), services.RMAFilter{
		Status:   models.RMAStatus(c.Query("status")),
		DealerID: dealerID,
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	})
	if err != nil {
		return err
	}
	return listResponse(c, rmas, pg, total)
}

func (h *RMAHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "rma_id")
	if err != nil {
		return err
	}
	rma, err := h.rmas.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": rma})
}

type remarksRequest struct {
	Remarks string `json:"remarks"`
}

// Transition builds the accept, reject and resolve endpoints.
func (h *RMAHandler) Transition(status models.RMAStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "rma_id")
		if err != nil {
			return err
		}
		var req remarksRequest
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return err
			}
		}

		var rma *models.RMA
		switch status {
		case models.RMAStatusAccepted:
			rma, err = h.rmas.Accept(c.UserContext(), id, req.Remarks)
		case models.RMAStatusRejected:
			rma, err = h.rmas.Reject(c.UserContext(), id, req.Remarks)
		case models.RMAStatusResolved:
			rma, err = h.rmas.Resolve(c.UserContext(), id, req.Remarks)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unsupported transition")
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": rma})
	}
}

func (h *RMAHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "rma_id")
	if err != nil {
		return err
	}
	if err := h.rmas.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "rma deleted"})
}
