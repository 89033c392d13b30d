package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPSendStoresAndDelivers(t *testing.T) {
	svc, mr, ch := newOTPService(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "Dealer@Example.com", "+919800000000"))

	stored, err := mr.Get("otp:dealer@example.com")
	require.NoError(t, err)
	assert.Equal(t, testOTP, stored)
	assert.Equal(t, 5*time.Minute, mr.TTL("otp:dealer@example.com"))

	msgs := ch.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, testOTP)
	assert.Equal(t, "+919800000000", msgs[0].Phone)
}

func TestOTPIsSingleUse(t *testing.T) {
	svc, _, _ := newOTPService(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "a@example.com", ""))
	require.NoError(t, svc.Verify(ctx, "a@example.com", testOTP))

	err := svc.Verify(ctx, "a@example.com", testOTP)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPWrongCodeKeepsCode(t *testing.T) {
	svc, _, _ := newOTPService(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "a@example.com", ""))
	assert.ErrorIs(t, svc.Verify(ctx, "a@example.com", "000000"), ErrInvalidOTP)
	assert.NoError(t, svc.Verify(ctx, "a@example.com", testOTP))
}

func TestOTPResendSupersedesCode(t *testing.T) {
	svc, mr, _ := newOTPService(t)
	ctx := context.Background()
	codes := []string{"111111", "222222"}
	svc.generate = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	require.NoError(t, svc.Send(ctx, "a@example.com", ""))
	require.NoError(t, svc.Send(ctx, "a@example.com", ""))

	assert.ErrorIs(t, svc.Verify(ctx, "a@example.com", "111111"), ErrInvalidOTP)
	stored, err := mr.Get("otp:a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", stored)
	assert.NoError(t, svc.Verify(ctx, "a@example.com", "222222"))
	assert.False(t, mr.Exists("otp:a@example.com"))
}

func TestOTPExpires(t *testing.T) {
	svc, mr, _ := newOTPService(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, "a@example.com", ""))
	mr.FastForward(301 * time.Second)

	assert.ErrorIs(t, svc.Verify(ctx, "a@example.com", testOTP), ErrInvalidOTP)
}

func TestOTPConcurrentVerifyHasOneWinner(t *testing.T) {
	svc, _, _ := newOTPService(t)
	ctx := context.Background()
	require.NoError(t, svc.Send(ctx, "race@example.com", ""))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Verify(ctx, "race@example.com", testOTP) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRequireVerified(t *testing.T) {
	ctx := context.Background()

	t.Run("inline code", func(t *testing.T) {
		svc, _, _ := newOTPService(t)
		require.NoError(t, svc.Send(ctx, "a@example.com", ""))
		assert.NoError(t, svc.RequireVerified(ctx, "a@example.com", testOTP))
		assert.ErrorIs(t, svc.RequireVerified(ctx, "a@example.com", testOTP), ErrInvalidOTP)
	})

	t.Run("prior verification", func(t *testing.T) {
		svc, _, _ := newOTPService(t)
		require.NoError(t, svc.Send(ctx, "a@example.com", ""))
		require.NoError(t, svc.Verify(ctx, "a@example.com", testOTP))

		assert.NoError(t, svc.RequireVerified(ctx, "a@example.com", ""))
		assert.ErrorIs(t, svc.RequireVerified(ctx, "a@example.com", ""), ErrInvalidOTP)
	})

	t.Run("never verified", func(t *testing.T) {
		svc, _, _ := newOTPService(t)
		assert.ErrorIs(t, svc.RequireVerified(ctx, "a@example.com", ""), ErrInvalidOTP)
	})
}
