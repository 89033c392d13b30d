package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypeAmount     DiscountType = "AMOUNT"
	DiscountTypePercentage DiscountType = "PERCENTAGE"
)

func (t DiscountType) Valid() bool {
	return oneOf(t, []DiscountType{DiscountTypeAmount, DiscountTypePercentage})
}

// Discount is a coupon for one dealer on one product. Exactly one of Amount
// and Percentage is set, matching Type.
type Discount struct {
	BaseModel
	DealerID   uuid.UUID        `gorm:"type:uuid;index" json:"dealer_id"`
	Dealer     *Dealer          `json:"dealer,omitempty"`
	ProductID  uuid.UUID        `gorm:"type:uuid;index" json:"product_id"`
	Product    *Product         `json:"product,omitempty"`
	Type       DiscountType     `json:"type"`
	Amount     *decimal.Decimal `gorm:"type:numeric(14,2)" json:"amount,omitempty"`
	Percentage *decimal.Decimal `gorm:"type:numeric(5,2)" json:"percentage,omitempty"`
	ExpiryDate time.Time        `gorm:"index" json:"expiry_date"`
	IsActive   bool             `json:"is_active"`
}

// Apply returns price reduced by the discount, never below zero.
func (d Discount) Apply(price decimal.Decimal) decimal.Decimal {
	var off decimal.Decimal
	switch d.Type {
	case DiscountTypeAmount:
		if d.Amount != nil {
			off = *d.Amount
		}
	case DiscountTypePercentage:
		if d.Percentage != nil {
			off = price.Mul(*d.Percentage).Div(decimal.NewFromInt(100)).Round(2)
		}
	}
	if off.GreaterThan(price) {
		return decimal.Zero
	}
	return price.Sub(off)
}

// Usable reports whether d is active and unexpired at now.
func (d Discount) Usable(now time.Time) bool {
	return d.IsActive && d.ExpiryDate.After(now)
}
