package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier delivers alerts to an outside channel.
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}

// Severity orders alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertMessage describes one upstream transition.
type AlertMessage struct {
	Kind     string
	Severity Severity
	Target   string
	Snapshot Snapshot
	Detail   string
}

// SlackNotifier posts alerts to an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	source     string
	client     *http.Client
}

// NewSlackNotifier returns nil when no webhook is configured. source names the
// console instance in each message.
func NewSlackNotifier(webhookURL, source string) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		source:     source,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if s == nil || s.webhookURL == "" {
		return errors.New("slack notifier not configured")
	}

	body, err := json.Marshal(map[string]any{"text": s.format(msg)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook answered %d", resp.StatusCode)
	}
	return nil
}

func (s *SlackNotifier) format(msg AlertMessage) string {
	emoji := ":information_source:"
	switch msg.Severity {
	case SeverityWarning:
		emoji = ":warning:"
	case SeverityCritical:
		emoji = ":rotating_light:"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s: %s*\n", emoji, s.source, alertTitle(msg.Kind))
	fmt.Fprintf(&b, "target: %s\n", msg.Target)
	if msg.Snapshot.StatusCode > 0 {
		fmt.Fprintf(&b, "status: %d, %dms\n", msg.Snapshot.StatusCode, msg.Snapshot.ResponseMS)
	}
	if msg.Detail != "" {
		b.WriteString(msg.Detail + "\n")
	}
	b.WriteString("checked at " + msg.Snapshot.CheckedAt.UTC().Format(time.RFC3339))
	return b.String()
}

func alertTitle(kind string) string {
	switch kind {
	case alertDown:
		return "API unreachable"
	case alertRecovered:
		return "API recovered"
	case alertLatency:
		return "API slow"
	}
	return kind
}
