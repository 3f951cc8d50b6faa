package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers short customer-facing messages. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// SMSGateway posts messages to an HTTP SMS provider.
type SMSGateway struct {
	url    string
	apiKey string
	client *http.Client
	log    zerolog.Logger
}

func NewSMSGateway(url, apiKey string, log zerolog.Logger) *SMSGateway {
	return &SMSGateway{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (g *SMSGateway) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      phone,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	g.log.Debug().Str("phone", phone).Msg("sms dispatched")
	return nil
}

// Noop discards every message. Used when no gateway is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, phone, message string) error { return nil }
