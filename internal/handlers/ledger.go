package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/ariss/internal/services"
)

type LedgerHandler struct {
	ledgers *services.LedgerService
}

func NewLedgerHandler(ledgers *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgers: ledgers}
}

// List returns the caller's ledgers, or any dealer's for staff.
func (h *LedgerHandler) List(c *fiber.Ctx) error {
	scope, err := dealerScope(c)
	if err != nil {
		return err
	}
	if scope == nil {
		if scope, err = queryUUID(c, "dealer_id"); err != nil {
			return err
		}
	}
	open, err := queryBool(c, "open")
	if err != nil {
		return err
	}

	ledgers, err := h.ledgers.List(c.UserContext(), scope, open != nil && *open)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": ledgers})
}

// RecordPayment books a credit repayment. Dealers pay against their own
// ledgers; staff name the dealer in the body.
func (h *LedgerHandler) RecordPayment(c *fiber.Ctx) error {
	var req services.LedgerPaymentInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	scope, err := dealerScope(c)
	if err != nil {
		return err
	}
	if scope != nil {
		req.DealerID = *scope
	}

	ledger, err := h.ledgers.RecordPayment(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": ledger})
}
