package services

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// GatewayOrder is the remote order a client completes payment against.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id"`
}

// PaymentGateway creates remote payment orders.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error)
}

// RazorpayGateway wraps the Razorpay orders API.
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret), keyID: keyID}
}

// CreateOrder books an INR order; amount is converted to paise.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paise := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   paise,
		"currency": "INR",
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay create order: missing id in response")
	}

	return &GatewayOrder{
		ID:       id,
		Amount:   paise,
		Currency: "INR",
		Receipt:  receipt,
		KeyID:    g.keyID,
	}, nil
}
