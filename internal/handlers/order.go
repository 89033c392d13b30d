package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/services"
	"github.com/example/ariss/internal/utils"
)

// OrderHandler manages checkout, payment confirmation and fulfilment.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder places the signed-in dealer's cart.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	var req services.CreateOrderInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.DealerID = s.UserID

	checkout, err := h.orders.CreateOrder(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": checkout})
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	scope, err := dealerScope(c)
	if err != nil {
		return err
	}
	checkoutRef, err := queryUUID(c, "checkout_ref")
	if err != nil {
		return err
	}

	filter := services.OrderFilter{
		DealerID:    scope,
		Status:      models.OrderStatus(c.Query("status")),
		CheckoutRef: checkoutRef,
		Limit:       pg.Limit,
		Offset:      pg.Offset,
	}
	if scope == nil {
		if filter.DealerID, err = queryUUID(c, "dealer_id"); err != nil {
			return err
		}
	}

	orders, total, err := h.orders.ListOrders(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return listResponse(c, orders, pg, total)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseID(c, "order_id")
	if err != nil {
		return err
	}
	scope, err := dealerScope(c)
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrder(c.UserContext(), id, scope)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// CancelOrder deletes a PENDING order. Dealers may only cancel their own.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := parseID(c, "order_id")
	if err != nil {
		return err
	}
	scope, err := dealerScope(c)
	if err != nil {
		return err
	}

	if err := h.orders.CancelOrder(c.UserContext(), id, scope); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "order cancelled"})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "order_id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateOrderStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPayment confirms a checkout completed in the client SDK.
func (h *OrderHandler) VerifyPayment(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	orders, err := h.orders.VerifyPayment(c.UserContext(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "payment verified", "data": orders})
}

// Webhook receives gateway payment events. The raw body is what the
// signature covers.
func (h *OrderHandler) Webhook(c *fiber.Ctx) error {
	result, err := h.orders.HandleWebhook(c.UserContext(), c.Body(), c.Get("X-Razorpay-Signature"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": result})
}
