package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/ariss/internal/config"
	"github.com/example/ariss/internal/middleware"
	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/services"
)

// AuthHandler bundles the OTP and password sign-in endpoints.
type AuthHandler struct {
	otp      *services.OTPService
	accounts *services.AccountService
	staff    *services.StaffService
	cfg      *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(otp *services.OTPService, accounts *services.AccountService, staff *services.StaffService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{otp: otp, accounts: accounts, staff: staff, cfg: cfg}
}

type otpRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// SendOTP issues a fresh code to email and, when given, WhatsApp.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	if err := h.otp.Send(c.UserContext(), req.Email, req.Phone); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "otp sent"})
}

// VerifyOTP consumes a code ahead of registration.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and otp are required")
	}

	if err := h.otp.Verify(c.UserContext(), req.Email, req.OTP); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "verified": true})
}

type otpLoginRequest struct {
	Email string      `json:"email"`
	OTP   string      `json:"otp"`
	Role  models.Role `json:"role"`
}

// Login signs a dealer, technician or back-office user in with an OTP.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req otpLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.accounts.Login(c.UserContext(), req.Email, req.OTP, req.Role)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, result)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

type passwordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req passwordLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.staff.AdminLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, result)
}

func (h *AuthHandler) EmployeeLogin(c *fiber.Ctx) error {
	var req passwordLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.staff.EmployeeLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, result)
}

// EmployeeRegister creates an employee waiting for admin approval.
func (h *AuthHandler) EmployeeRegister(c *fiber.Ctx) error {
	var req services.EmployeeRegistration
	if err := parseBody(c, &req); err != nil {
		return err
	}

	employee, err := h.staff.RegisterEmployee(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": employee})
}

// StaffProfile returns the admin or employee behind the session.
func (h *AuthHandler) StaffProfile(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	var account any
	switch s.Role {
	case models.RoleAdmin:
		account, err = h.staff.GetAdmin(c.UserContext(), s.UserID)
	case models.RoleEmployee:
		account, err = h.staff.GetEmployee(c.UserContext(), s.UserID)
	default:
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": account})
}

// respondWithSession sets the HTTP-only cookie and echoes the token in the body.
func (h *AuthHandler) respondWithSession(c *fiber.Ctx, result *services.LoginResult) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"token":   result.Token,
		"role":    result.Role,
		"user":    result.Account,
	})
}
