package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusDispatched OrderStatus = "DISPATCHED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusDispatched,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool { return oneOf(s, orderStatuses) }

type PaymentMode string

const (
	PaymentModeOnline PaymentMode = "ONLINE"
	PaymentModeCredit PaymentMode = "CREDIT"
)

func (m PaymentMode) Valid() bool {
	return oneOf(m, []PaymentMode{PaymentModeOnline, PaymentModeCredit})
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	return oneOf(s, []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed})
}

// Order is one cart line of a checkout. Lines of the same checkout share
// CheckoutRef and, for online payment, GatewayOrderID.
type Order struct {
	BaseModel
	DealerID       uuid.UUID       `gorm:"type:uuid;index" json:"dealer_id"`
	Dealer         *Dealer         `json:"dealer,omitempty"`
	ProductID      uuid.UUID       `gorm:"type:uuid;index" json:"product_id"`
	Product        *Product        `json:"product,omitempty"`
	DiscountID     *uuid.UUID      `gorm:"type:uuid" json:"discount_id,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(14,2)" json:"unit_price"`
	LineAmount     decimal.Decimal `gorm:"type:numeric(14,2)" json:"line_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2)" json:"total_amount"`
	Status         OrderStatus     `gorm:"index;default:PENDING" json:"status"`
	PaymentMode    PaymentMode     `json:"payment_mode"`
	CheckoutRef    uuid.UUID       `gorm:"type:uuid;index" json:"checkout_ref"`
	GatewayOrderID string          `gorm:"index" json:"gateway_order_id,omitempty"`
	// CancelledByPayment marks a cancellation caused by a failed gateway
	// payment; a later capture on the same gateway order revives the order.
	CancelledByPayment bool `json:"-"`
}

// Payment records the gateway outcome for one order.
type Payment struct {
	BaseModel
	OrderID          uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	GatewayOrderID   string          `gorm:"index" json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(14,2)" json:"amount"`
	Status           PaymentStatus   `json:"status"`
}

// Ledger tracks the credit extended to a dealer for one credit checkout.
type Ledger struct {
	BaseModel
	DealerID   uuid.UUID       `gorm:"type:uuid;index" json:"dealer_id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	TotalDue   decimal.Decimal `gorm:"type:numeric(14,2)" json:"total_due"`
	AmountPaid decimal.Decimal `gorm:"type:numeric(14,2)" json:"amount_paid"`
	BalanceDue decimal.Decimal `gorm:"type:numeric(14,2)" json:"balance_due"`
	DueDate    time.Time       `json:"due_date"`
}

// TableName keeps the singular name used by the mobile clients.
func (Ledger) TableName() string {
	return "ledger"
}
