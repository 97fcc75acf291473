// Package notify pushes human-readable order summaries to an external chat
// channel. Delivery is fire-and-forget: order placement never waits on it and
// never observes its failures.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

// TelegramConfig configures the outbound Telegram channel. Empty token or
// chat id disables sending.
type TelegramConfig struct {
	Token  string
	ChatID string
	// BaseURL overrides the Telegram API endpoint, for tests.
	BaseURL string
}

// Telegram sends order summaries via the Telegram bot sendMessage API.
type Telegram struct {
	cfg    TelegramConfig
	client *http.Client
	lg     *zap.Logger
}

// NewTelegram creates the notifier. The HTTP client carries an otel transport
// so outbound calls show up in traces.
func NewTelegram(cfg TelegramConfig, lg *zap.Logger) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	return &Telegram{
		cfg: cfg,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		lg: lg,
	}
}

// Enabled reports whether a token and chat id are configured.
func (t *Telegram) Enabled() bool {
	return t.cfg.Token != "" && t.cfg.ChatID != ""
}

// Dispatch sends the summary on a detached goroutine. The caller's context is
// deliberately not used: a finished request must not cancel the send, and the
// caller has no way to observe the outcome.
func (t *Telegram) Dispatch(o *order.WithCustomer) {
	if !t.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := t.Send(ctx, o); err != nil {
			t.lg.Warn("order notification failed",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
		}
	}()
}

// Send posts the order summary once. No retries within this pipeline.
func (t *Telegram) Send(ctx context.Context, o *order.WithCustomer) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": t.cfg.ChatID,
		"text":    FormatOrderMessage(o),
	})
	if err != nil {
		return errors.Wrap(err, "encode payload")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.BaseURL, t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("telegram responded %d", resp.StatusCode)
	}
	return nil
}

// FormatOrderMessage renders the plain-text order summary: customer, phone,
// order type, conditional table or address, itemized lines and the total.
func FormatOrderMessage(o *order.WithCustomer) string {
	var b strings.Builder
	b.WriteString("New Order Received!\n\n")
	fmt.Fprintf(&b, "Customer: %s\n", o.Customer.Name)
	fmt.Fprintf(&b, "Phone: %s\n", o.Customer.Phone)
	fmt.Fprintf(&b, "Type: %s\n", strings.ToUpper(string(o.Fulfillment.OrderType())))
	switch f := o.Fulfillment.(type) {
	case order.DineIn:
		fmt.Fprintf(&b, "Table: %s\n", f.Table)
	case order.Delivery:
		fmt.Fprintf(&b, "Address: %s\n", f.Address)
	}
	b.WriteString("\nItems:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- %dx %s\n", item.Quantity, item.Name)
	}
	fmt.Fprintf(&b, "\nTotal: ৳%s", o.Total.String())
	return b.String()
}

// Noop is a Notifier that drops everything, used when Telegram is not
// configured.
type Noop struct{}

// Dispatch does nothing.
func (Noop) Dispatch(*order.WithCustomer) {}
