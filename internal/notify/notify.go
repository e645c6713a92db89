// Package notify delivers briefings to Slack and Feishu incoming webhooks.
// A channel with no webhook URL configured prints to stdout instead, which
// keeps local runs usable without any credentials.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/macrodesk/macrobrief/internal/logger"
	"github.com/macrodesk/macrobrief/internal/retry"
)

// Sender posts one message to a delivery channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, content string) error
}

type webhookSender struct {
	name       string
	webhookURL string
	httpClient *http.Client
	retryCfg   retry.Config
	payload    func(content string) interface{}
}

func (s *webhookSender) Name() string { return s.name }

// Send posts the content, retrying transient failures. With no webhook URL
// the content goes to stdout and the send counts as delivered.
func (s *webhookSender) Send(ctx context.Context, content string) error {
	if s.webhookURL == "" {
		fmt.Printf("--- %s briefing (no webhook configured) ---\n%s\n", s.name, content)
		return nil
	}

	err := retry.Do(ctx, s.retryCfg, func() error {
		return s.post(ctx, content)
	})
	if err != nil {
		return fmt.Errorf("%s delivery failed: %w", s.name, err)
	}
	logger.Info("briefing delivered", "channel", s.name, "chars", len(content))
	return nil
}

func (s *webhookSender) post(ctx context.Context, content string) error {
	body, err := json.Marshal(s.payload(content))
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NewSlack builds a Slack incoming-webhook sender.
func NewSlack(webhookURL string, timeout time.Duration, retryCfg retry.Config) Sender {
	return &webhookSender{
		name:       "slack",
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retryCfg,
		payload: func(content string) interface{} {
			return map[string]string{"text": content}
		},
	}
}

// NewFeishu builds a Feishu (Lark) bot webhook sender.
func NewFeishu(webhookURL string, timeout time.Duration, retryCfg retry.Config) Sender {
	return &webhookSender{
		name:       "feishu",
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retryCfg,
		payload: func(content string) interface{} {
			return map[string]interface{}{
				"msg_type": "text",
				"content":  map[string]string{"text": content},
			}
		},
	}
}
