package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ariss/internal/testutil"
)

func TestWishlist(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewWishlistService(db)
	ctx := context.Background()
	dealer := testutil.SeedDealer(t, db, "owner@acme.in", true)
	product := testutil.SeedProduct(t, db, "RT-100", 1500)

	item, err := svc.Add(ctx, dealer.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, item.Product.ID)

	_, err = svc.Add(ctx, dealer.ID, product.ID)
	assert.True(t, IsKind(err, KindConflict))

	_, err = svc.Add(ctx, dealer.ID, uuid.New())
	assert.True(t, IsKind(err, KindNotFound))

	items, err := svc.List(ctx, dealer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "RT-100", items[0].Product.SKU)

	assert.True(t, IsKind(svc.Remove(ctx, uuid.New(), product.ID), KindNotFound))
	require.NoError(t, svc.Remove(ctx, dealer.ID, product.ID))

	items, err = svc.List(ctx, dealer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
