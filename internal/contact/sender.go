package contact

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

// Email is an outgoing message.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// DefaultResendURL is the Resend send-email endpoint.
const DefaultResendURL = "https://api.resend.com/emails"

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	apiKey string
	url    string
	client *http.Client
}

// NewResendSender returns a sender using apiKey. An empty url selects
// DefaultResendURL and a nil client gets a 10 second timeout.
func NewResendSender(apiKey, url string, client *http.Client) *ResendSender {
	if url == "" {
		url = DefaultResendURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ResendSender{apiKey: apiKey, url: url, client: client}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

// Send posts e to Resend. Any non-2xx answer is an error carrying the
// status and the start of the response body.
func (s *ResendSender) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(resendRequest{
		From:    e.From,
		To:      e.To,
		ReplyTo: e.ReplyTo,
		Subject: e.Subject,
		Text:    e.Text,
		HTML:    e.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
