package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/example/ariss/internal/models"
)

const (
	testOTP   = "123456"
	testGSTIN = "27AAPFU0939F1ZV"
)

type recordingChannel struct {
	mu   sync.Mutex
	sent []Message
}

func (r *recordingChannel) Name() string { return "test" }

func (r *recordingChannel) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingChannel) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

type fakeGST struct {
	trade string
	err   error
}

func (f fakeGST) Lookup(_ context.Context, gstin string) (*GSTDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	gstin, err := NormalizeGSTIN(gstin)
	if err != nil {
		return nil, err
	}
	return &GSTDetails{GSTIN: gstin, TradeName: f.trade, Address: "12 MG Road, Pune"}, nil
}

type fakeGateway struct {
	mu      sync.Mutex
	err     error
	amount  decimal.Decimal
	receipt string
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.amount, g.receipt = amount, receipt
	return &GatewayOrder{ID: "order_test123", Amount: amount.Mul(decimal.NewFromInt(100)).IntPart(), Currency: "INR", Receipt: receipt}, nil
}

type recordingAlerter struct {
	mu     sync.Mutex
	orders []OrderAlert
	rmas   []models.RMA
}

func (a *recordingAlerter) NewOrder(_ context.Context, alert OrderAlert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.orders = append(a.orders, alert)
}

func (a *recordingAlerter) NewRMA(_ context.Context, rma models.RMA) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rmas = append(a.rmas, rma)
}

func (a *recordingAlerter) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.orders), len(a.rmas)
}

// newOTPService returns a service backed by miniredis that always issues testOTP.
func newOTPService(t *testing.T) (*OTPService, *miniredis.Miniredis, *recordingChannel) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ch := &recordingChannel{}
	svc := NewOTPService(NewRedisOTPStore(client), NewNotifier(time.Second, ch), 5*time.Minute)
	svc.generate = func() (string, error) { return testOTP, nil }
	return svc, mr, ch
}
