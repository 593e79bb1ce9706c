// Package alert forwards high-severity pipeline failures and escalation
// drafts to the operator alerting channel.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Severity classifies an alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Alert is one notification for the operators.
type Alert struct {
	CorrelationID string   `json:"correlation_id,omitempty"`
	Severity      Severity `json:"severity"`
	Summary       string   `json:"summary"`
}

// Notifier delivers alerts to the operator channel.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// SlackNotifier posts alerts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlack(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *SlackNotifier) Notify(ctx context.Context, a Alert) error {
	text := fmt.Sprintf(":rotating_light: [%s] %s", a.Severity, a.Summary)
	if a.CorrelationID != "" {
		text += fmt.Sprintf(" (correlation_id=%s)", a.CorrelationID)
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier drops alerts when no alerting channel is configured. Each
// dropped alert is still visible in the service log.
type NopNotifier struct{}

func (NopNotifier) Notify(_ context.Context, a Alert) error {
	log.Printf("[alert] no channel configured, dropping %s alert: %s", a.Severity, a.Summary)
	return nil
}
