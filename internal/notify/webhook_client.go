package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient posts {"recipient","message"} as JSON to a fixed URL and
// treats any 2xx response as delivered.
type WebhookClient struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhookClient(url, token string, timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

func (c *WebhookClient) Name() string { return "webhook" }

func (c *WebhookClient) Send(ctx context.Context, recipient, message string) error {
	reqBody, err := json.Marshal(sendRequest{
		Recipient: recipient,
		Message:   message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status code: %d body=%q", ErrDelivery, resp.StatusCode, truncate(string(body), 512))
	}
	return nil
}
