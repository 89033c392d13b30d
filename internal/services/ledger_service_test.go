package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ariss/internal/models"
)

func TestRecordPayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	svc := NewLedgerService(f.db)
	checkout := f.checkout(t, models.PaymentModeCredit)

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, LedgerPaymentInput{DealerID: f.dealer.ID, Amount: decimal.Zero})
		assert.True(t, IsKind(err, KindValidation))
	})

	t.Run("overpayment", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, LedgerPaymentInput{DealerID: f.dealer.ID, Amount: decimal.NewFromInt(5000)})
		assert.True(t, IsKind(err, KindValidation))
	})

	t.Run("partial then full", func(t *testing.T) {
		ledger, err := svc.RecordPayment(ctx, LedgerPaymentInput{DealerID: f.dealer.ID, Amount: decimal.NewFromInt(1000)})
		require.NoError(t, err)
		assert.Equal(t, checkout.Ledger.ID, ledger.ID)
		assert.True(t, ledger.BalanceDue.Equal(decimal.NewFromInt(2800)))

		ledger, err = svc.RecordPayment(ctx, LedgerPaymentInput{
			DealerID: f.dealer.ID,
			LedgerID: &checkout.Ledger.ID,
			Amount:   decimal.NewFromInt(2800),
		})
		require.NoError(t, err)
		assert.True(t, ledger.BalanceDue.IsZero())

		var stored models.Ledger
		require.NoError(t, f.db.First(&stored, "id = ?", ledger.ID).Error)
		assert.True(t, stored.AmountPaid.Equal(decimal.NewFromInt(3800)))
		assert.True(t, stored.BalanceDue.Equal(stored.TotalDue.Sub(stored.AmountPaid)))
	})

	t.Run("nothing open", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, LedgerPaymentInput{DealerID: f.dealer.ID, Amount: decimal.NewFromInt(1)})
		assert.True(t, IsKind(err, KindNotFound))
	})

	open, err := svc.List(ctx, &f.dealer.ID, true)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := svc.List(ctx, nil, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
