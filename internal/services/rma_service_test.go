package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/testutil"
)

func rmaInput() CreateRMAInput {
	return CreateRMAInput{
		Name:         "Ravi",
		Phone:        "+919800000000",
		Email:        "Ravi@Example.com",
		ProductName:  "Router RT-100",
		SerialNumber: "SN-0001",
		Issue:        "no power",
	}
}

func TestRMALifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	ch := &recordingChannel{}
	alerts := &recordingAlerter{}
	svc := NewRMAService(db, NewNotifier(time.Second, ch), alerts)
	ctx := context.Background()

	rma, err := svc.Create(ctx, rmaInput())
	require.NoError(t, err)
	assert.Equal(t, models.RMAStatusReceived, rma.Status)
	assert.Equal(t, "ravi@example.com", rma.Email)
	assert.Eventually(t, func() bool {
		_, rmas := alerts.counts()
		return rmas == 1
	}, time.Second, 10*time.Millisecond)

	_, err = svc.Create(ctx, rmaInput())
	assert.True(t, IsKind(err, KindConflict))

	accepted, err := svc.Accept(ctx, rma.ID, "ship to Pune")
	require.NoError(t, err)
	assert.Equal(t, models.RMAStatusAccepted, accepted.Status)
	require.Len(t, ch.messages(), 1)
	assert.Contains(t, ch.messages()[0].Body, "ship to Pune")

	_, err = svc.Create(ctx, rmaInput())
	assert.True(t, IsKind(err, KindConflict), "accepted requests stay in flight")

	resolved, err := svc.Resolve(ctx, rma.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.RMAStatusResolved, resolved.Status)
	assert.Equal(t, "ship to Pune", resolved.Remarks)
	assert.Len(t, ch.messages(), 2)

	second, err := svc.Create(ctx, rmaInput())
	require.NoError(t, err)

	_, err = svc.Reject(ctx, second.ID, "out of warranty")
	require.NoError(t, err)

	stored, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RMAStatusRejected, stored.Status)
	assert.Equal(t, "out of warranty", stored.Remarks)

	list, total, err := svc.List(ctx, RMAFilter{Status: models.RMAStatusResolved})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, rma.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, second.ID))
	assert.True(t, IsKind(svc.Delete(ctx, second.ID), KindNotFound))
}

func TestRMAValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRMAService(db, nil, nil)
	ctx := context.Background()

	in := rmaInput()
	in.SerialNumber = " "
	_, err := svc.Create(ctx, in)
	assert.True(t, IsKind(err, KindValidation))

	in = rmaInput()
	in.Email = "nope"
	_, err = svc.Create(ctx, in)
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.Accept(ctx, uuid.New(), "")
	assert.True(t, IsKind(err, KindNotFound))

	_, _, err = svc.List(ctx, RMAFilter{Status: "LOST"})
	assert.True(t, IsKind(err, KindValidation))
}
