package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aidekit/aide/internal/models"
)

// WebhookPush posts notification payloads to the subscription's stored
// endpoint. The web client side of the push handshake lives outside this
// process; we only deliver to the endpoint it registered.
type WebhookPush struct {
	client *http.Client
}

func NewWebhookPush(timeout time.Duration) *WebhookPush {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookPush{client: &http.Client{Timeout: timeout}}
}

type pushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Keys  map[string]string `json:"keys,omitempty"`
}

func (w *WebhookPush) Deliver(ctx context.Context, sub *models.PushSubscription, text string) error {
	body, err := json.Marshal(pushPayload{Title: "aide", Body: text, Keys: sub.Keys})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
