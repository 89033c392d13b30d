package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/models"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	var totalDealers, pendingDealers int64
	if err := db.Model(&models.Dealer{}).Count(&totalDealers).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Dealer{}).Where("is_approved = ?", false).Count(&pendingDealers).Error; err != nil {
		return err
	}

	pending := fiber.Map{}
	for name, model := range map[string]any{
		"technicians":  &models.Technician{},
		"back_offices": &models.BackOffice{},
		"employees":    &models.Employee{},
	} {
		var n int64
		if err := db.Model(model).Where("is_approved = ?", false).Count(&n).Error; err != nil {
			return err
		}
		pending[name] = n
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	var totalOrders int64
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
		totalOrders += sc.Count
	}

	// Outstanding credit across all ledgers
	var ledgers []models.Ledger
	if err := db.Select("balance_due").Where("balance_due > 0").Find(&ledgers).Error; err != nil {
		return err
	}
	outstanding := decimal.Zero
	for _, l := range ledgers {
		outstanding = outstanding.Add(l.BalanceDue)
	}

	var openRMAs int64
	if err := db.Model(&models.RMA{}).Where("status IN ?", models.RMAInFlight).Count(&openRMAs).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_dealers":      totalDealers,
			"pending_dealers":    pendingDealers,
			"pending_approvals":  pending,
			"total_orders":       totalOrders,
			"orders_by_status":   ordersByStatus,
			"outstanding_credit": outstanding.StringFixed(2),
			"open_rmas":          openRMAs,
		},
	})
}

// RecentOrders returns the most recent 5 orders for the dashboard.
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	var orders []models.Order
	if err := h.db.WithContext(c.UserContext()).
		Preload("Product").Preload("Dealer").
		Order("created_at desc").
		Limit(5).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
	})
}
