package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Slack posts to an incoming webhook.
type Slack struct {
	Webhook string
	Client  *http.Client
}

// NewSlack returns nil for an empty webhook so callers can drop it into a Multi unconditionally.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return fmt.Errorf("slack: no webhook configured")
	}
	body, err := json.Marshal(slackPayload{Text: "*" + title + "*\n" + text})
	if err != nil {
		return fmt.Errorf("slack: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack: webhook answered %d", resp.StatusCode)
	}
	return nil
}
