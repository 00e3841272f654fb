package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no webhook URL is set.
var ErrNotConfigured = errors.New("teams webhook not configured")

// Notifier posts cards to an incoming webhook.
type Notifier struct {
	WebhookURL string
	HTTPClient *http.Client
}

// NewNotifier constructs a Notifier with a bounded client timeout.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		WebhookURL: strings.TrimSpace(webhookURL),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts card. Any non-2xx answer is an error.
func (n *Notifier) Send(ctx context.Context, card Card) error {
	if n == nil || n.WebhookURL == "" {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(card)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("teams post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("teams post: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
