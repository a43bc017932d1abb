package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Severity classifies a pipeline report message.
type Severity string

const (
	SeverityPass         Severity = "pass"
	SeverityFail         Severity = "fail"
	SeverityNotification Severity = "notification"
)

// severityColours maps each severity to the card theme colour.
var severityColours = map[Severity]string{
	SeverityPass:         "#00c400",
	SeverityFail:         "#c40000",
	SeverityNotification: "#0000c4",
}

// Messenger delivers a one-way report message. Implementations must never
// let a delivery failure mask the pipeline result; callers only log errors.
type Messenger interface {
	Send(ctx context.Context, title, text string, severity Severity) error
}

// Webhook posts MessageCard payloads to an incoming-webhook URL.
type Webhook struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// Option configures a Webhook.
type Option func(*Webhook)

func WithHTTPClient(client *http.Client) Option {
	return func(w *Webhook) {
		w.client = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Webhook) {
		w.logger = logger
	}
}

// NewWebhook constructs a webhook messenger.
func NewWebhook(url string, opts ...Option) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	w := &Webhook{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

type messageCard struct {
	Type        string `json:"@type"`
	ThemeColour string `json:"themeColor"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Markdown    bool   `json:"markdown"`
}

func (w *Webhook) Send(ctx context.Context, title, text string, severity Severity) error {
	colour, ok := severityColours[severity]
	if !ok {
		return fmt.Errorf("invalid notification severity: %q", severity)
	}

	body, err := json.Marshal(messageCard{
		Type:        "MessageCard",
		ThemeColour: colour,
		Title:       title,
		Text:        text,
		Markdown:    true,
	})
	if err != nil {
		return fmt.Errorf("marshal message card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Noop discards messages. Used when no webhook is configured and in tests.
type Noop struct{}

func (Noop) Send(context.Context, string, string, Severity) error { return nil }
