package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/ariss/internal/metrics"
	"github.com/example/ariss/internal/models"
)

// AdminAlerter pushes operational events to the back-office team.
type AdminAlerter interface {
	NewOrder(ctx context.Context, alert OrderAlert)
	NewRMA(ctx context.Context, rma models.RMA)
}

const alertTimeout = 20 * time.Second

// dispatchAlert runs send off the request path under its own deadline.
func dispatchAlert(ctx context.Context, send func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
		defer cancel()
		send(ctx)
	}()
}

// TelegramService posts admin alerts to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendToAdmin sends an HTML message to the admin chat. It is a no-op when the
// bot is not configured.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.botToken == "" || s.adminChatID == "" {
		return errSkipped
	}

	body, err := json.Marshal(telegramMessage{ChatID: s.adminChatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *TelegramService) deliver(ctx context.Context, text string) {
	err := s.SendToAdmin(ctx, strings.TrimSpace(text))
	switch {
	case err == nil:
		metrics.NotificationCounter.WithLabelValues("telegram", "sent").Inc()
	case err == errSkipped:
		metrics.NotificationCounter.WithLabelValues("telegram", "skipped").Inc()
	default:
		metrics.NotificationCounter.WithLabelValues("telegram", "failed").Inc()
		zap.L().Warn("telegram alert failed", zap.Error(err))
	}
}

// OrderAlert summarises one checkout.
type OrderAlert struct {
	CheckoutRef string
	DealerName  string
	PaymentMode models.PaymentMode
	Lines       []OrderAlertLine
	Total       decimal.Decimal
}

// OrderAlertLine is one product line of a checkout.
type OrderAlertLine struct {
	Name     string
	Quantity int
	Amount   decimal.Decimal
}

// FormatPrice formats an INR amount with thousand separators.
func FormatPrice(amount decimal.Decimal) string {
	str := amount.StringFixed(2)
	intPart, frac, _ := strings.Cut(str, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var result strings.Builder
	if neg {
		result.WriteString("-")
	}
	length := len(intPart)
	for i, digit := range intPart {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return "₹" + result.String() + "." + frac
}

// NewOrder alerts the admin chat about a checkout.
func (s *TelegramService) NewOrder(ctx context.Context, alert OrderAlert) {
	var lines strings.Builder
	for i, line := range alert.Lines {
		lines.WriteString(fmt.Sprintf("%d. <b>%s</b> x %d = %s\n", i+1, line.Name, line.Quantity, FormatPrice(line.Amount)))
	}

	s.deliver(ctx, fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>Checkout:</b> %s
<b>Dealer:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s
<b>Payment:</b> %s`,
		alert.CheckoutRef,
		alert.DealerName,
		lines.String(),
		FormatPrice(alert.Total),
		alert.PaymentMode,
	))
}

// NewRMA alerts the admin chat about a return request.
func (s *TelegramService) NewRMA(ctx context.Context, rma models.RMA) {
	s.deliver(ctx, fmt.Sprintf(`<b>📦 NEW RMA</b>
<b>Customer:</b> %s (%s, %s)
<b>Product:</b> %s
<b>Serial:</b> %s
<b>Issue:</b> %s`,
		rma.Name, rma.Phone, rma.Email, rma.ProductName, rma.SerialNumber, rma.Issue,
	))
}
