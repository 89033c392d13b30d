package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/ariss/internal/metrics"
)

// Message is one templated notification addressed to a person.
type Message struct {
	Email   string
	Phone   string
	Subject string
	Body    string
}

// Channel delivers a message over one medium.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// errSkipped marks a channel that had nothing to do (unconfigured or no address).
var errSkipped = errors.New("channel skipped")

// Notifier fans a message out to every channel concurrently. Delivery is best
// effort: failures are logged and counted, never returned to the caller.
type Notifier struct {
	channels []Channel
	timeout  time.Duration
}

func NewNotifier(timeout time.Duration, channels ...Channel) *Notifier {
	return &Notifier{channels: channels, timeout: timeout}
}

// Notify blocks until every channel has finished or the timeout elapsed.
func (n *Notifier) Notify(ctx context.Context, msg Message) {
	if n == nil || len(n.channels) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, ch := range n.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			err := ch.Send(ctx, msg)
			switch {
			case err == nil:
				metrics.NotificationCounter.WithLabelValues(ch.Name(), "sent").Inc()
			case errors.Is(err, errSkipped):
				metrics.NotificationCounter.WithLabelValues(ch.Name(), "skipped").Inc()
			default:
				metrics.NotificationCounter.WithLabelValues(ch.Name(), "failed").Inc()
				zap.L().Warn("notification delivery failed",
					zap.String("channel", ch.Name()),
					zap.String("subject", msg.Subject),
					zap.Error(err))
			}
		}(ch)
	}
	wg.Wait()
}

// SMTPMailer sends plain HTML mail through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) Name() string { return "email" }

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.host == "" || m.username == "" || msg.Email == "" {
		return errSkipped
	}

	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.from, msg.Email, msg.Subject, strings.ReplaceAll(msg.Body, "\n", "<br>"))
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{msg.Email}, []byte(raw))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TwilioWhatsApp sends WhatsApp messages through the Twilio Messages API.
type TwilioWhatsApp struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilioWhatsApp(accountSID, authToken, from string) *TwilioWhatsApp {
	return &TwilioWhatsApp{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com/2010-04-01",
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *TwilioWhatsApp) Name() string { return "whatsapp" }

func (w *TwilioWhatsApp) Send(ctx context.Context, msg Message) error {
	if w.accountSID == "" || w.authToken == "" || msg.Phone == "" {
		return errSkipped
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+w.from)
	form.Set("To", "whatsapp:"+msg.Phone)
	form.Set("Body", msg.Subject+"\n\n"+msg.Body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", w.baseURL, w.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(w.accountSID, w.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}
	return nil
}
