package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/utils"
)

// creditTerm is how long a dealer has to settle a credit checkout.
const creditTerm = 30 * 24 * time.Hour

// OrderService runs checkout and the payment state machine.
type OrderService struct {
	db            *gorm.DB
	gateway       PaymentGateway
	alerts        AdminAlerter
	keySecret     string
	webhookSecret string
	now           func() time.Time
}

func NewOrderService(db *gorm.DB, gateway PaymentGateway, alerts AdminAlerter, keySecret, webhookSecret string) *OrderService {
	return &OrderService{
		db:            db,
		gateway:       gateway,
		alerts:        alerts,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		now:           time.Now,
	}
}

type CartLine struct {
	ProductID  uuid.UUID  `json:"product_id"`
	Quantity   int        `json:"quantity"`
	DiscountID *uuid.UUID `json:"discount_id,omitempty"`
}

type CreateOrderInput struct {
	DealerID    uuid.UUID          `json:"-"`
	Cart        []CartLine         `json:"cart"`
	PaymentMode models.PaymentMode `json:"payment_mode"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

// Checkout is the result of CreateOrder. Gateway is set for online payment,
// Ledger for credit.
type Checkout struct {
	CheckoutRef uuid.UUID       `json:"checkout_ref"`
	Orders      []models.Order  `json:"orders"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Gateway     *GatewayOrder   `json:"gateway_order,omitempty"`
	Ledger      *models.Ledger  `json:"ledger,omitempty"`
}

func (in CreateOrderInput) validate() error {
	if len(in.Cart) == 0 {
		return validationError("cart is empty")
	}
	if !in.PaymentMode.Valid() {
		return validationError("payment_mode must be ONLINE or CREDIT")
	}
	for i, line := range in.Cart {
		if line.ProductID == uuid.Nil {
			return validationError("cart[%d]: product_id is required", i)
		}
		if line.Quantity <= 0 {
			return validationError("cart[%d]: quantity must be positive", i)
		}
	}
	if in.TotalAmount.IsNegative() {
		return validationError("total_amount cannot be negative")
	}
	return nil
}

// CreateOrder writes one PENDING order per cart line and either books a
// gateway order (ONLINE) or opens a ledger (CREDIT). All of it happens in one
// transaction; a gateway failure rolls the orders back.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*Checkout, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.PaymentMode == models.PaymentModeOnline && s.gateway == nil {
		return nil, validationError("online payment is not available")
	}

	var (
		checkout = Checkout{CheckoutRef: uuid.New()}
		dealer   models.Dealer
		alert    []OrderAlertLine
		now      = s.now()
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dealer, "id = ?", in.DealerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("dealer")
			}
			return err
		}

		ids := lo.Uniq(lo.Map(in.Cart, func(l CartLine, _ int) uuid.UUID { return l.ProductID }))
		var products []models.Product
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return err
		}
		byID := lo.KeyBy(products, func(p models.Product) uuid.UUID { return p.ID })

		sum := decimal.Zero
		orders := make([]models.Order, 0, len(in.Cart))
		for _, line := range in.Cart {
			product, ok := byID[line.ProductID]
			if !ok || !product.IsActive {
				return notFoundError("product " + line.ProductID.String())
			}

			unit := product.Price
			if line.DiscountID != nil {
				discount, err := resolveDiscount(tx, *line.DiscountID, in.DealerID, product.ID, now)
				if err != nil {
					return err
				}
				unit = discount.Apply(unit)
			}
			amount := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
			sum = sum.Add(amount)

			orders = append(orders, models.Order{
				DealerID:    in.DealerID,
				ProductID:   product.ID,
				DiscountID:  line.DiscountID,
				Quantity:    line.Quantity,
				UnitPrice:   unit,
				LineAmount:  amount,
				Status:      models.OrderStatusPending,
				PaymentMode: in.PaymentMode,
				CheckoutRef: checkout.CheckoutRef,
			})
			alert = append(alert, OrderAlertLine{Name: product.Name, Quantity: line.Quantity, Amount: amount})
		}

		total := in.TotalAmount
		if total.IsZero() {
			total = sum
		} else if !total.Equal(sum) {
			return validationError("total_amount %s does not match cart total %s", total.StringFixed(2), sum.StringFixed(2))
		}
		for i := range orders {
			orders[i].TotalAmount = total
		}
		checkout.TotalAmount = total

		if err := tx.Create(&orders).Error; err != nil {
			return err
		}

		switch in.PaymentMode {
		case models.PaymentModeCredit:
			ledger := models.Ledger{
				DealerID:   in.DealerID,
				OrderID:    orders[0].ID,
				TotalDue:   total,
				AmountPaid: decimal.Zero,
				BalanceDue: total,
				DueDate:    now.Add(creditTerm),
			}
			if err := tx.Create(&ledger).Error; err != nil {
				return err
			}
			checkout.Ledger = &ledger
		case models.PaymentModeOnline:
			gw, err := s.gateway.CreateOrder(ctx, total, orders[0].ID.String())
			if err != nil {
				return err
			}
			if err := tx.Model(&models.Order{}).
				Where("checkout_ref = ?", checkout.CheckoutRef).
				Update("gateway_order_id", gw.ID).Error; err != nil {
				return err
			}
			for i := range orders {
				orders[i].GatewayOrderID = gw.ID
			}
			checkout.Gateway = gw
		}

		checkout.Orders = orders
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.alert(ctx, OrderAlert{
		CheckoutRef: checkout.CheckoutRef.String(),
		DealerName:  dealer.BusinessName,
		PaymentMode: in.PaymentMode,
		Lines:       alert,
		Total:       checkout.TotalAmount,
	})
	return &checkout, nil
}

func (s *OrderService) alert(ctx context.Context, alert OrderAlert) {
	if s.alerts == nil {
		return
	}
	dispatchAlert(ctx, func(ctx context.Context) { s.alerts.NewOrder(ctx, alert) })
}

// VerifyPayment checks the client-side checkout signature and settles the
// orders of that gateway order only.
func (s *OrderService) VerifyPayment(ctx context.Context, gatewayOrderID, paymentID, signature string) ([]models.Order, error) {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return nil, validationError("order id, payment id and signature are required")
	}
	if !utils.VerifyHMAC(s.keySecret, []byte(gatewayOrderID+"|"+paymentID), signature) {
		return nil, ErrInvalidSignature
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		orders, err = s.settle(tx, gatewayOrderID, paymentID, models.PaymentStatusCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// WebhookResult summarises one processed gateway callback.
type WebhookResult struct {
	Event          string               `json:"event"`
	GatewayOrderID string               `json:"gateway_order_id"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
	Orders         int                  `json:"orders"`
}

// paymentStatusFromGateway maps the gateway vocabulary onto ours.
func paymentStatusFromGateway(status string) models.PaymentStatus {
	switch status {
	case "captured":
		return models.PaymentStatusCompleted
	case "failed":
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

// HandleWebhook applies a gateway payment callback. Every callback must carry
// a valid body signature; without a webhook secret all callbacks are refused.
func (s *OrderService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if s.webhookSecret == "" {
		zap.L().Warn("payment webhook rejected: no webhook secret configured")
		return nil, ErrWebhookDisabled
	}
	if !utils.VerifyHMAC(s.webhookSecret, body, signature) {
		return nil, ErrInvalidSignature
	}
	if !gjson.ValidBytes(body) {
		return nil, validationError("invalid webhook payload")
	}

	payload := gjson.ParseBytes(body)
	entity := payload.Get("payload.payment.entity")
	result := WebhookResult{
		Event:          payload.Get("event").String(),
		GatewayOrderID: entity.Get("order_id").String(),
		PaymentStatus:  paymentStatusFromGateway(entity.Get("status").String()),
	}
	if result.GatewayOrderID == "" {
		return nil, validationError("webhook payload has no order id")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders, err := s.settle(tx, result.GatewayOrderID, entity.Get("id").String(), result.PaymentStatus)
		result.Orders = len(orders)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("payment webhook processed",
		zap.String("event", result.Event),
		zap.String("gateway_order_id", result.GatewayOrderID),
		zap.String("status", string(result.PaymentStatus)),
		zap.Int("orders", result.Orders))
	return &result, nil
}

// settle records status for every order of a gateway order and moves the
// orders on. A completed payment is final and a pending event never replaces
// an outcome. COMPLETED moves PENDING orders, and orders cancelled by an earlier
// failed payment, to PROCESSING. FAILED moves PENDING orders to CANCELLED.
func (s *OrderService) settle(tx *gorm.DB, gatewayOrderID, paymentID string, status models.PaymentStatus) ([]models.Order, error) {
	scope := func() *gorm.DB {
		return tx.Model(&models.Order{}).
			Where("gateway_order_id = ? AND payment_mode = ?", gatewayOrderID, models.PaymentModeOnline)
	}

	var orders []models.Order
	if err := scope().Clauses(clause.Locking{Strength: "UPDATE"}).Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, notFoundError("order")
	}

	payments := lo.Map(orders, func(o models.Order, _ int) models.Payment {
		return models.Payment{
			OrderID:          o.ID,
			GatewayOrderID:   gatewayOrderID,
			GatewayPaymentID: paymentID,
			Amount:           o.LineAmount,
			Status:           status,
		}
	})
	current := clause.Column{Table: "payments", Name: "status"}
	var guard clause.Expression = clause.Neq{Column: current, Value: models.PaymentStatusCompleted}
	if status == models.PaymentStatusPending {
		guard = clause.Eq{Column: current, Value: models.PaymentStatusPending}
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"gateway_payment_id", "status", "updated_at"}),
		Where:     clause.Where{Exprs: []clause.Expression{guard}},
	}).Create(&payments).Error; err != nil {
		return nil, err
	}

	var moved *gorm.DB
	switch status {
	case models.PaymentStatusCompleted:
		moved = scope().
			Where("(status = ? OR (status = ? AND cancelled_by_payment = ?))",
				models.OrderStatusPending, models.OrderStatusCancelled, true).
			Updates(map[string]any{"status": models.OrderStatusProcessing, "cancelled_by_payment": false})
	case models.PaymentStatusFailed:
		moved = scope().
			Where("status = ?", models.OrderStatusPending).
			Updates(map[string]any{"status": models.OrderStatusCancelled, "cancelled_by_payment": true})
	default:
		return orders, nil
	}
	if moved.Error != nil {
		return nil, moved.Error
	}
	if moved.RowsAffected == 0 {
		return orders, nil
	}

	orders = orders[:0]
	if err := scope().Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// scopedOrder loads an order; with dealerID set, orders of other dealers are
// reported as missing.
func scopedOrder(tx *gorm.DB, id uuid.UUID, dealerID *uuid.UUID) (*models.Order, error) {
	query := tx
	if dealerID != nil {
		query = query.Where("dealer_id = ?", *dealerID)
	}
	var order models.Order
	err := query.First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder hard-deletes a PENDING order. For a credit checkout the ledger
// shrinks by the line amount and goes away with its last line.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID, dealerID *uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := scopedOrder(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, dealerID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return conflictError("order is %s and can no longer be cancelled", order.Status)
		}

		if order.PaymentMode == models.PaymentModeCredit {
			if err := shrinkLedger(tx, order); err != nil {
				return err
			}
		}
		return tx.Delete(&models.Order{}, "id = ?", order.ID).Error
	})
}

func shrinkLedger(tx *gorm.DB, order *models.Order) error {
	var siblings []models.Order
	if err := tx.Where("checkout_ref = ? AND id <> ?", order.CheckoutRef, order.ID).Find(&siblings).Error; err != nil {
		return err
	}
	lineIDs := append(lo.Map(siblings, func(o models.Order, _ int) uuid.UUID { return o.ID }), order.ID)

	var ledger models.Ledger
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_id IN ?", lineIDs).First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if len(siblings) == 0 {
		if ledger.AmountPaid.IsPositive() {
			return conflictError("ledger already has payments recorded")
		}
		return tx.Delete(&models.Ledger{}, "id = ?", ledger.ID).Error
	}

	totalDue := ledger.TotalDue.Sub(order.LineAmount)
	if ledger.AmountPaid.GreaterThan(totalDue) {
		return conflictError("ledger already paid beyond the remaining amount")
	}
	ownerID := ledger.OrderID
	if ownerID == order.ID {
		ownerID = siblings[0].ID
	}
	if err := tx.Model(&models.Order{}).Where("checkout_ref = ?", order.CheckoutRef).
		Update("total_amount", totalDue).Error; err != nil {
		return err
	}
	return tx.Model(&ledger).Updates(map[string]any{
		"order_id":    ownerID,
		"total_due":   totalDue,
		"balance_due": totalDue.Sub(ledger.AmountPaid),
	}).Error
}

// UpdateOrderStatus sets any valid status. Staff use it to drive fulfilment.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, validationError("invalid order status %q", status)
	}

	db := s.db.WithContext(ctx)
	order, err := scopedOrder(db, id, nil)
	if err != nil {
		return nil, err
	}
	// A status set by staff is authoritative; a later capture must not revive it.
	if err := db.Model(order).Updates(map[string]any{"status": status, "cancelled_by_payment": false}).Error; err != nil {
		return nil, err
	}
	order.Status = status
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID, dealerID *uuid.UUID) (*models.Order, error) {
	order, err := scopedOrder(s.db.WithContext(ctx).Preload("Product").Preload("Dealer"), id, dealerID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

type OrderFilter struct {
	DealerID    *uuid.UUID
	Status      models.OrderStatus
	CheckoutRef *uuid.UUID
	Limit       int
	Offset      int
}

func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.DealerID != nil {
		query = query.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, 0, validationError("invalid order status %q", filter.Status)
		}
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CheckoutRef != nil {
		query = query.Where("checkout_ref = ?", *filter.CheckoutRef)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var orders []models.Order
	if err := query.Preload("Product").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
