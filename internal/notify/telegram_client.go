package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramClient posts to the Bot API sendMessage method. Recipients are chat ids.
type TelegramClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewTelegramClient(baseURL, token string, timeout time.Duration) *TelegramClient {
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	return &TelegramClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type telegramRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *TelegramClient) Name() string { return "telegram" }

func (c *TelegramClient) Send(ctx context.Context, chatID, text string) error {
	reqBody, err := json.Marshal(telegramRequest{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, redactURL(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, redactURL(err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code: %d body=%q", ErrDelivery, resp.StatusCode, truncate(string(body), 512))
	}

	var tr telegramResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("%w: failed to decode json: %v body=%q", ErrDelivery, err, truncate(string(body), 512))
	}
	if !tr.OK {
		return fmt.Errorf("%w: telegram rejected message: %s", ErrDelivery, tr.Description)
	}
	return nil
}
