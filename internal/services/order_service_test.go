package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/testutil"
	"github.com/example/ariss/internal/utils"
)

const (
	testKeySecret     = "key-secret"
	testWebhookSecret = "webhook-secret"
)

type orderFixture struct {
	db      *gorm.DB
	svc     *OrderService
	gateway *fakeGateway
	alerts  *recordingAlerter
	dealer  models.Dealer
	router  models.Product
	sw      models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &orderFixture{
		db:      db,
		gateway: &fakeGateway{},
		alerts:  &recordingAlerter{},
		dealer:  testutil.SeedDealer(t, db, "owner@acme.in", true),
		router:  testutil.SeedProduct(t, db, "RT-100", 1500),
		sw:      testutil.SeedProduct(t, db, "SW-200", 800),
	}
	f.svc = NewOrderService(db, f.gateway, f.alerts, testKeySecret, testWebhookSecret)
	return f
}

func (f *orderFixture) checkout(t *testing.T, mode models.PaymentMode) *Checkout {
	t.Helper()
	checkout, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		DealerID:    f.dealer.ID,
		PaymentMode: mode,
		Cart: []CartLine{
			{ProductID: f.router.ID, Quantity: 2},
			{ProductID: f.sw.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return checkout
}

func (f *orderFixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func webhookBody(orderID, paymentID, status string) []byte {
	return []byte(fmt.Sprintf(`{"event":"payment.%s","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":%q}}}}`,
		status, paymentID, orderID, status))
}

func TestCreateOrderCredit(t *testing.T) {
	f := newOrderFixture(t)
	checkout := f.checkout(t, models.PaymentModeCredit)

	require.Len(t, checkout.Orders, 2)
	assert.True(t, checkout.TotalAmount.Equal(decimal.NewFromInt(3800)))
	assert.Nil(t, checkout.Gateway)
	for _, o := range checkout.Orders {
		assert.Equal(t, models.OrderStatusPending, o.Status)
		assert.Equal(t, checkout.CheckoutRef, o.CheckoutRef)
		assert.True(t, o.TotalAmount.Equal(checkout.TotalAmount))
	}

	require.NotNil(t, checkout.Ledger)
	var ledger models.Ledger
	require.NoError(t, f.db.First(&ledger, "id = ?", checkout.Ledger.ID).Error)
	assert.Equal(t, checkout.Orders[0].ID, ledger.OrderID)
	assert.True(t, ledger.TotalDue.Equal(decimal.NewFromInt(3800)))
	assert.True(t, ledger.BalanceDue.Equal(decimal.NewFromInt(3800)))
	assert.True(t, ledger.AmountPaid.IsZero())
	assert.WithinDuration(t, time.Now().Add(creditTerm), ledger.DueDate, time.Minute)

	assert.Eventually(t, func() bool {
		orders, _ := f.alerts.counts()
		return orders == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCreateOrderOnline(t *testing.T) {
	f := newOrderFixture(t)
	checkout := f.checkout(t, models.PaymentModeOnline)

	require.NotNil(t, checkout.Gateway)
	assert.Equal(t, "order_test123", checkout.Gateway.ID)
	assert.EqualValues(t, 380000, checkout.Gateway.Amount)
	assert.Equal(t, checkout.Orders[0].ID.String(), f.gateway.receipt)
	assert.Nil(t, checkout.Ledger)

	var stored []models.Order
	require.NoError(t, f.db.Where("checkout_ref = ?", checkout.CheckoutRef).Find(&stored).Error)
	require.Len(t, stored, 2)
	for _, o := range stored {
		assert.Equal(t, "order_test123", o.GatewayOrderID)
	}

	var ledgers int64
	require.NoError(t, f.db.Model(&models.Ledger{}).Count(&ledgers).Error)
	assert.Zero(t, ledgers)
}

func TestCreateOrderGatewayFailureRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.err = errors.New("gateway unavailable")

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		DealerID:    f.dealer.ID,
		PaymentMode: models.PaymentModeOnline,
		Cart:        []CartLine{{ProductID: f.router.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Zero(t, f.orderCount(t))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	inactive := testutil.SeedProduct(t, f.db, "OLD-1", 100)
	require.NoError(t, f.db.Model(&inactive).Update("is_active", false).Error)

	tests := []struct {
		name string
		in   CreateOrderInput
		kind ErrorKind
	}{
		{"empty cart", CreateOrderInput{DealerID: f.dealer.ID, PaymentMode: models.PaymentModeCredit}, KindValidation},
		{"bad mode", CreateOrderInput{DealerID: f.dealer.ID, PaymentMode: "CASH",
			Cart: []CartLine{{ProductID: f.router.ID, Quantity: 1}}}, KindValidation},
		{"zero quantity", CreateOrderInput{DealerID: f.dealer.ID, PaymentMode: models.PaymentModeCredit,
			Cart: []CartLine{{ProductID: f.router.ID}}}, KindValidation},
		{"unknown product", CreateOrderInput{DealerID: f.dealer.ID, PaymentMode: models.PaymentModeCredit,
			Cart: []CartLine{{ProductID: uuid.New(), Quantity: 1}}}, KindNotFound},
		{"inactive product", CreateOrderInput{DealerID: f.dealer.ID, PaymentMode: models.PaymentModeCredit,
			Cart: []CartLine{{ProductID: inactive.ID, Quantity: 1}}}, KindNotFound},
		{"unknown dealer", CreateOrderInput{DealerID: uuid.New(), PaymentMode: models.PaymentModeCredit,
			Cart: []CartLine{{ProductID: f.router.ID, Quantity: 1}}}, KindNotFound},
		{"total mismatch", CreateOrderInput{DealerID: f.dealer.ID, PaymentMode: models.PaymentModeCredit,
			Cart: []CartLine{{ProductID: f.router.ID, Quantity: 1}}, TotalAmount: decimal.NewFromInt(10)}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, tt.in)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
	assert.Zero(t, f.orderCount(t))
}

func TestCreateOrderAppliesDiscount(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	discounts := NewDiscountService(f.db)

	pct := decimal.NewFromInt(10)
	discount, err := discounts.Create(ctx, CreateDiscountInput{
		DealerID:   f.dealer.ID,
		ProductID:  f.router.ID,
		Type:       models.DiscountTypePercentage,
		Percentage: &pct,
		ExpiryDate: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	checkout, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		DealerID:    f.dealer.ID,
		PaymentMode: models.PaymentModeCredit,
		Cart:        []CartLine{{ProductID: f.router.ID, Quantity: 2, DiscountID: &discount.ID}},
		TotalAmount: decimal.NewFromInt(2700),
	})
	require.NoError(t, err)
	assert.True(t, checkout.Orders[0].UnitPrice.Equal(decimal.NewFromInt(1350)))
	assert.True(t, checkout.TotalAmount.Equal(decimal.NewFromInt(2700)))

	t.Run("wrong product", func(t *testing.T) {
		_, err := f.svc.CreateOrder(ctx, CreateOrderInput{
			DealerID:    f.dealer.ID,
			PaymentMode: models.PaymentModeCredit,
			Cart:        []CartLine{{ProductID: f.sw.ID, Quantity: 1, DiscountID: &discount.ID}},
		})
		assert.True(t, IsKind(err, KindValidation))
	})
}

func TestVerifyPayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	checkout := f.checkout(t, models.PaymentModeOnline)
	gwID := checkout.Gateway.ID

	t.Run("bad signature", func(t *testing.T) {
		_, err := f.svc.VerifyPayment(ctx, gwID, "pay_1", "deadbeef")
		assert.ErrorIs(t, err, ErrInvalidSignature)

		var pending int64
		require.NoError(t, f.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&pending).Error)
		assert.EqualValues(t, 2, pending)
	})

	t.Run("unknown gateway order", func(t *testing.T) {
		sig := utils.SignHMAC(testKeySecret, []byte("order_other|pay_1"))
		_, err := f.svc.VerifyPayment(ctx, "order_other", "pay_1", sig)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("valid signature", func(t *testing.T) {
		sig := utils.SignHMAC(testKeySecret, []byte(gwID+"|pay_1"))
		orders, err := f.svc.VerifyPayment(ctx, gwID, "pay_1", sig)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		for _, o := range orders {
			assert.Equal(t, models.OrderStatusProcessing, o.Status)
		}

		var payments []models.Payment
		require.NoError(t, f.db.Where("gateway_order_id = ?", gwID).Find(&payments).Error)
		require.Len(t, payments, 2)
		for _, p := range payments {
			assert.Equal(t, models.PaymentStatusCompleted, p.Status)
			assert.Equal(t, "pay_1", p.GatewayPaymentID)
		}
	})
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("captured", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		body := webhookBody(checkout.Gateway.ID, "pay_9", "captured")

		result, err := f.svc.HandleWebhook(ctx, body, utils.SignHMAC(testWebhookSecret, body))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, result.PaymentStatus)
		assert.Equal(t, 2, result.Orders)

		var processing int64
		require.NoError(t, f.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusProcessing).Count(&processing).Error)
		assert.EqualValues(t, 2, processing)
	})

	t.Run("failed", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		body := webhookBody(checkout.Gateway.ID, "pay_9", "failed")

		result, err := f.svc.HandleWebhook(ctx, body, utils.SignHMAC(testWebhookSecret, body))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, result.PaymentStatus)

		var cancelled int64
		require.NoError(t, f.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusCancelled).Count(&cancelled).Error)
		assert.EqualValues(t, 2, cancelled)
	})

	t.Run("late events do not undo a completed payment", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		f.webhook(t, checkout.Gateway.ID, "pay_9", "captured")
		f.webhook(t, checkout.Gateway.ID, "pay_10", "failed")
		f.webhook(t, checkout.Gateway.ID, "pay_11", "authorized")

		f.assertOrders(t, checkout.Gateway.ID, models.OrderStatusProcessing)
		f.assertPayments(t, checkout.Gateway.ID, models.PaymentStatusCompleted, "pay_9")
	})

	t.Run("capture after failure revives the orders", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		f.webhook(t, checkout.Gateway.ID, "pay_9", "failed")
		f.assertOrders(t, checkout.Gateway.ID, models.OrderStatusCancelled)

		result := f.webhook(t, checkout.Gateway.ID, "pay_10", "captured")
		assert.Equal(t, 2, result.Orders)
		f.assertOrders(t, checkout.Gateway.ID, models.OrderStatusProcessing)
		f.assertPayments(t, checkout.Gateway.ID, models.PaymentStatusCompleted, "pay_10")
	})

	t.Run("capture keeps a staff cancellation", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		f.webhook(t, checkout.Gateway.ID, "pay_9", "failed")
		for _, o := range checkout.Orders {
			_, err := f.svc.UpdateOrderStatus(ctx, o.ID, models.OrderStatusCancelled)
			require.NoError(t, err)
		}

		f.webhook(t, checkout.Gateway.ID, "pay_10", "captured")
		f.assertOrders(t, checkout.Gateway.ID, models.OrderStatusCancelled)
	})

	t.Run("authorized does not replace a failure", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		f.webhook(t, checkout.Gateway.ID, "pay_9", "failed")
		f.webhook(t, checkout.Gateway.ID, "pay_10", "authorized")

		f.assertOrders(t, checkout.Gateway.ID, models.OrderStatusCancelled)
		f.assertPayments(t, checkout.Gateway.ID, models.PaymentStatusFailed, "pay_9")
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		body := webhookBody(checkout.Gateway.ID, "pay_9", "captured")

		_, err := f.svc.HandleWebhook(ctx, body, "nope")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejected without a webhook secret", func(t *testing.T) {
		f := newOrderFixture(t)
		f.svc.webhookSecret = ""
		checkout := f.checkout(t, models.PaymentModeOnline)

		for _, sig := range []string{"", utils.SignHMAC("", webhookBody(checkout.Gateway.ID, "pay_9", "captured"))} {
			_, err := f.svc.HandleWebhook(ctx, webhookBody(checkout.Gateway.ID, "pay_9", "captured"), sig)
			assert.ErrorIs(t, err, ErrWebhookDisabled)
		}
		f.assertOrders(t, checkout.Gateway.ID, models.OrderStatusPending)

		var payments int64
		require.NoError(t, f.db.Model(&models.Payment{}).Count(&payments).Error)
		assert.Zero(t, payments)
	})

	t.Run("malformed", func(t *testing.T) {
		f := newOrderFixture(t)
		body := []byte("{not json")
		_, err := f.svc.HandleWebhook(ctx, body, utils.SignHMAC(testWebhookSecret, body))
		assert.True(t, IsKind(err, KindValidation))
	})
}

func (f *orderFixture) webhook(t *testing.T, gatewayOrderID, paymentID, status string) *WebhookResult {
	t.Helper()
	body := webhookBody(gatewayOrderID, paymentID, status)
	result, err := f.svc.HandleWebhook(context.Background(), body, utils.SignHMAC(testWebhookSecret, body))
	require.NoError(t, err)
	return result
}

func (f *orderFixture) assertOrders(t *testing.T, gatewayOrderID string, want models.OrderStatus) {
	t.Helper()
	var orders []models.Order
	require.NoError(t, f.db.Where("gateway_order_id = ?", gatewayOrderID).Find(&orders).Error)
	require.NotEmpty(t, orders)
	for _, o := range orders {
		assert.Equal(t, want, o.Status)
	}
}

func (f *orderFixture) assertPayments(t *testing.T, gatewayOrderID string, want models.PaymentStatus, paymentID string) {
	t.Helper()
	var payments []models.Payment
	require.NoError(t, f.db.Where("gateway_order_id = ?", gatewayOrderID).Find(&payments).Error)
	require.Len(t, payments, 2)
	for _, p := range payments {
		assert.Equal(t, want, p.Status)
		assert.Equal(t, paymentID, p.GatewayPaymentID)
	}
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("only pending", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		id := checkout.Orders[0].ID
		_, err := f.svc.UpdateOrderStatus(ctx, id, models.OrderStatusDispatched)
		require.NoError(t, err)

		err = f.svc.CancelOrder(ctx, id, &f.dealer.ID)
		assert.True(t, IsKind(err, KindConflict))

		var order models.Order
		assert.NoError(t, f.db.First(&order, "id = ?", id).Error)
	})

	t.Run("other dealer", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeOnline)
		stranger := uuid.New()

		err := f.svc.CancelOrder(ctx, checkout.Orders[0].ID, &stranger)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("credit line shrinks the ledger", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeCredit)
		first, second := checkout.Orders[0], checkout.Orders[1]

		require.NoError(t, f.svc.CancelOrder(ctx, first.ID, &f.dealer.ID))

		var ledger models.Ledger
		require.NoError(t, f.db.First(&ledger, "id = ?", checkout.Ledger.ID).Error)
		assert.Equal(t, second.ID, ledger.OrderID)
		assert.True(t, ledger.TotalDue.Equal(second.LineAmount))
		assert.True(t, ledger.BalanceDue.Equal(second.LineAmount))

		var remaining models.Order
		require.NoError(t, f.db.First(&remaining, "id = ?", second.ID).Error)
		assert.True(t, remaining.TotalAmount.Equal(second.LineAmount))

		require.NoError(t, f.svc.CancelOrder(ctx, second.ID, nil))
		var ledgers int64
		require.NoError(t, f.db.Model(&models.Ledger{}).Count(&ledgers).Error)
		assert.Zero(t, ledgers)
		assert.Zero(t, f.orderCount(t))
	})

	t.Run("paid ledger refuses shrinking below amount paid", func(t *testing.T) {
		f := newOrderFixture(t)
		checkout := f.checkout(t, models.PaymentModeCredit)
		_, err := NewLedgerService(f.db).RecordPayment(ctx, LedgerPaymentInput{
			DealerID: f.dealer.ID,
			Amount:   decimal.NewFromInt(3500),
		})
		require.NoError(t, err)

		err = f.svc.CancelOrder(ctx, checkout.Orders[0].ID, nil)
		assert.True(t, IsKind(err, KindConflict))
		assert.EqualValues(t, 2, f.orderCount(t))
	})
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	first := f.checkout(t, models.PaymentModeCredit)
	f.checkout(t, models.PaymentModeCredit)

	orders, total, err := f.svc.ListOrders(ctx, OrderFilter{DealerID: &f.dealer.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, orders, 4)

	_, total, err = f.svc.ListOrders(ctx, OrderFilter{CheckoutRef: &first.CheckoutRef})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, _, err = f.svc.ListOrders(ctx, OrderFilter{Status: "LOST"})
	assert.True(t, IsKind(err, KindValidation))

	order, err := f.svc.GetOrder(ctx, first.Orders[0].ID, &f.dealer.ID)
	require.NoError(t, err)
	require.NotNil(t, order.Product)
	assert.Equal(t, "RT-100", order.Product.SKU)
}
