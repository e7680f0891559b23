package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is a single outgoing email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers email through a transactional provider
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Sender is the from address used by all providers
type Sender struct {
	Email string
	Name  string
}

type httpMailer struct {
	endpoint string
	client   *http.Client
}

func newHTTPMailer(endpoint string) httpMailer {
	return httpMailer{endpoint: endpoint, client: &http.Client{Timeout: 15 * time.Second}}
}

func (m httpMailer) post(ctx context.Context, body any, headers map[string]string) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email API error (status %d): %s", resp.StatusCode, string(msg))
	}
	return nil
}

// BrevoMailer sends through the Brevo transactional API
type BrevoMailer struct {
	httpMailer
	apiKey string
	from   Sender
}

// NewBrevoMailer creates a new Brevo mailer
func NewBrevoMailer(apiKey string, from Sender) *BrevoMailer {
	return &BrevoMailer{httpMailer: newHTTPMailer("https://api.brevo.com/v3/smtp/email"), apiKey: apiKey, from: from}
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Send posts the message to Brevo
func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	return m.post(ctx, struct {
		Sender      brevoContact   `json:"sender"`
		To          []brevoContact `json:"to"`
		Subject     string         `json:"subject"`
		HTMLContent string         `json:"htmlContent"`
	}{
		Sender:      brevoContact{Email: m.from.Email, Name: m.from.Name},
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	}, map[string]string{"api-key": m.apiKey})
}

// Name returns the provider name
func (m *BrevoMailer) Name() string { return "brevo" }

// ResendMailer sends through the Resend API
type ResendMailer struct {
	httpMailer
	apiKey string
	from   Sender
}

// NewResendMailer creates a new Resend mailer
func NewResendMailer(apiKey string, from Sender) *ResendMailer {
	return &ResendMailer{httpMailer: newHTTPMailer("https://api.resend.com/emails"), apiKey: apiKey, from: from}
}

// Send posts the message to Resend
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	from := m.from.Email
	if m.from.Name != "" {
		from = fmt.Sprintf("%s <%s>", m.from.Name, m.from.Email)
	}
	return m.post(ctx, struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}, map[string]string{"Authorization": "Bearer " + m.apiKey})
}

// Name returns the provider name
func (m *ResendMailer) Name() string { return "resend" }

// NewMailer picks a provider by name; an empty name or key disables email
func NewMailer(provider, apiKey string, from Sender) (Mailer, error) {
	if provider == "" || apiKey == "" {
		return nil, nil
	}
	switch provider {
	case "brevo":
		return NewBrevoMailer(apiKey, from), nil
	case "resend":
		return NewResendMailer(apiKey, from), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", provider)
	}
}
