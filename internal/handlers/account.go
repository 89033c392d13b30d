package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/services"
	"github.com/example/ariss/internal/utils"
)

// AccountHandler serves registration, profile and approval endpoints for
// dealers, their personnel and employees.
type AccountHandler struct {
	db       *gorm.DB
	accounts *services.AccountService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(db *gorm.DB, accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{db: db, accounts: accounts}
}

func (h *AccountHandler) RegisterDealer(c *fiber.Ctx) error {
	var req services.DealerRegistration
	if err := parseBody(c, &req); err != nil {
		return err
	}

	dealer, err := h.accounts.RegisterDealer(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "registration received, pending approval",
		"data":    dealer,
	})
}

func (h *AccountHandler) RegisterTechnician(c *fiber.Ctx) error {
	var req services.PersonnelRegistration
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tech, err := h.accounts.RegisterTechnician(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "registration received, pending approval",
		"data":    tech,
	})
}

func (h *AccountHandler) RegisterBackOffice(c *fiber.Ctx) error {
	var req services.PersonnelRegistration
	if err := parseBody(c, &req); err != nil {
		return err
	}

	member, err := h.accounts.RegisterBackOffice(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "registration received, pending approval",
		"data":    member,
	})
}

// Profile returns the signed-in account, whichever OTP role it has.
func (h *AccountHandler) Profile(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	var account any
	switch s.Role {
	case models.RoleDealer:
		account, err = h.accounts.GetDealer(c.UserContext(), s.UserID)
	case models.RoleTechnician:
		account, err = h.accounts.GetTechnician(c.UserContext(), s.UserID)
	case models.RoleBackOffice:
		account, err = h.accounts.GetBackOffice(c.UserContext(), s.UserID)
	default:
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": account})
}

func (h *AccountHandler) filter(c *fiber.Ctx, pg utils.Pagination) (services.AccountFilter, error) {
	approved, err := queryBool(c, "approved")
	if err != nil {
		return services.AccountFilter{}, err
	}
	dealerID, err := queryUUID(c, "dealer_id")
	if err != nil {
		return services.AccountFilter{}, err
	}
	return services.AccountFilter{
		Approved: approved,
		DealerID: dealerID,
		Search:   c.Query("search"),
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	}, nil
}

func (h *AccountHandler) ListDealers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	f, err := h.filter(c, pg)
	if err != nil {
		return err
	}
	f.DealerID = nil

	items, total, err := services.ListAccounts[models.Dealer](c.UserContext(), h.db, f, "business_name", "email", "gstin")
	if err != nil {
		return err
	}
	return listResponse(c, items, pg, total)
}

func (h *AccountHandler) ListTechnicians(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	f, err := h.filter(c, pg)
	if err != nil {
		return err
	}

	items, total, err := services.ListAccounts[models.Technician](c.UserContext(), h.db, f, "name", "email")
	if err != nil {
		return err
	}
	return listResponse(c, items, pg, total)
}

func (h *AccountHandler) ListBackOffices(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	f, err := h.filter(c, pg)
	if err != nil {
		return err
	}

	items, total, err := services.ListAccounts[models.BackOffice](c.UserContext(), h.db, f, "name", "email")
	if err != nil {
		return err
	}
	return listResponse(c, items, pg, total)
}

func (h *AccountHandler) ListEmployees(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	f, err := h.filter(c, pg)
	if err != nil {
		return err
	}
	f.DealerID = nil

	items, total, err := services.ListAccounts[models.Employee](c.UserContext(), h.db, f, "name", "email")
	if err != nil {
		return err
	}
	return listResponse(c, items, pg, total)
}

func (h *AccountHandler) GetDealer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	dealer, err := h.accounts.GetDealer(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dealer})
}

// SetApproval builds the approve and disapprove endpoints for one account kind.
func (h *AccountHandler) SetApproval(role models.Role, approved bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		if err := h.accounts.SetApproval(c.UserContext(), role, id, approved); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success":     true,
			"id":          id,
			"is_approved": approved,
		})
	}
}
