package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/testutil"
)

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateDiscountValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDiscountService(db)
	ctx := context.Background()
	dealer := testutil.SeedDealer(t, db, "owner@acme.in", true)
	product := testutil.SeedProduct(t, db, "RT-100", 1500)
	tomorrow := time.Now().Add(24 * time.Hour)

	valid := func() CreateDiscountInput {
		return CreateDiscountInput{
			DealerID:   dealer.ID,
			ProductID:  product.ID,
			Type:       models.DiscountTypeAmount,
			Amount:     decimalPtr(100),
			ExpiryDate: tomorrow,
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreateDiscountInput)
		kind   ErrorKind
	}{
		{"amount with percentage", func(in *CreateDiscountInput) { in.Percentage = decimalPtr(5) }, KindValidation},
		{"zero amount", func(in *CreateDiscountInput) { in.Amount = decimalPtr(0) }, KindValidation},
		{"percentage over 100", func(in *CreateDiscountInput) {
			in.Type, in.Amount, in.Percentage = models.DiscountTypePercentage, nil, decimalPtr(101)
		}, KindValidation},
		{"percentage without value", func(in *CreateDiscountInput) {
			in.Type, in.Amount = models.DiscountTypePercentage, nil
		}, KindValidation},
		{"unknown type", func(in *CreateDiscountInput) { in.Type = "BOGO" }, KindValidation},
		{"past expiry", func(in *CreateDiscountInput) { in.ExpiryDate = time.Now().Add(-time.Hour) }, KindValidation},
		{"unknown dealer", func(in *CreateDiscountInput) { in.DealerID = uuid.New() }, KindNotFound},
		{"unknown product", func(in *CreateDiscountInput) { in.ProductID = uuid.New() }, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}

	discount, err := svc.Create(ctx, valid())
	require.NoError(t, err)
	assert.True(t, discount.IsActive)

	got, err := svc.Get(ctx, discount.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Product)
	assert.Equal(t, product.ID, got.Product.ID)
}

func TestSweepExpired(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDiscountService(db)
	ctx := context.Background()
	dealer := testutil.SeedDealer(t, db, "owner@acme.in", true)
	product := testutil.SeedProduct(t, db, "RT-100", 1500)

	now := time.Now()
	for _, expiry := range []time.Time{now.Add(-48 * time.Hour), now.Add(-time.Hour), now.Add(time.Hour)} {
		require.NoError(t, db.Create(&models.Discount{
			DealerID:   dealer.ID,
			ProductID:  product.ID,
			Type:       models.DiscountTypeAmount,
			Amount:     decimalPtr(10),
			ExpiryDate: expiry,
			IsActive:   true,
		}).Error)
	}

	usable, total, err := svc.List(ctx, DiscountFilter{DealerID: &dealer.ID, UsableOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, usable, 1)

	deleted, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, total, err = svc.List(ctx, DiscountFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	deleted, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDeleteDiscount(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDiscountService(db)

	err := svc.Delete(context.Background(), uuid.New())
	assert.True(t, IsKind(err, KindNotFound))
}
