package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/ariss/internal/utils"
)

// OTPStore persists pending one-time codes.
type OTPStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume deletes the stored code when it matches and reports whether it did.
	Consume(ctx context.Context, email, code string) (bool, error)
	// MarkVerified records that email passed verification, for a later registration.
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	// ConsumeVerified removes the verification mark and reports whether it existed.
	ConsumeVerified(ctx context.Context, email string) (bool, error)
}

// RedisOTPStore keeps codes under otp:<email> with a TTL.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func otpKey(email string) string {
	return "otp:" + strings.ToLower(strings.TrimSpace(email))
}

func verifiedKey(email string) string {
	return "otp:verified:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *RedisOTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(email), code, ttl).Err()
}

// consumeScript deletes KEYS[1] only while it still holds ARGV[1], so a
// code replaced by a resend can never remove its successor.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisOTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{otpKey(email)}, code).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisOTPStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	return s.client.Set(ctx, verifiedKey(email), "1", ttl).Err()
}

func (s *RedisOTPStore) ConsumeVerified(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Del(ctx, verifiedKey(email)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// OTPService issues and checks email-bound one-time codes.
type OTPService struct {
	store    OTPStore
	notifier *Notifier
	ttl      time.Duration
	generate func() (string, error)
}

func NewOTPService(store OTPStore, notifier *Notifier, ttl time.Duration) *OTPService {
	return &OTPService{store: store, notifier: notifier, ttl: ttl, generate: utils.GenerateOTP}
}

// Send stores a fresh code for email and delivers it by email and WhatsApp.
func (s *OTPService) Send(ctx context.Context, email, phone string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validationError("email is required")
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.store.Save(ctx, email, code, s.ttl); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	s.notifier.Notify(ctx, otpMessage(email, phone, code, s.ttl))
	zap.L().Info("otp issued", zap.String("email", email))
	return nil
}

// Verify consumes the code for email and leaves a verification mark valid for
// the same window, so a registration can follow without resending the code.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	if err := s.consume(ctx, email, code); err != nil {
		return err
	}
	if err := s.store.MarkVerified(ctx, email, s.ttl); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// RequireVerified passes when code is valid for email or, with no code given,
// when email carries a fresh verification mark. Either is consumed.
func (s *OTPService) RequireVerified(ctx context.Context, email, code string) error {
	if strings.TrimSpace(code) != "" {
		return s.consume(ctx, email, code)
	}
	ok, err := s.store.ConsumeVerified(ctx, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}

// consume checks and deletes the code. A code verifies at most once.
func (s *OTPService) consume(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return validationError("email and otp are required")
	}

	ok, err := s.store.Consume(ctx, email, code)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}
