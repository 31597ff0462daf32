package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendURL = "https://api.resend.com/emails"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resend sends email through the Resend HTTP API.
type Resend struct {
	apiKey   string
	from     string
	endpoint string
	client   HTTPClient
}

// NewResend returns a Sender with a default HTTP client.
func NewResend(apiKey, from string) *Resend {
	return NewResendWithClient(apiKey, from, defaultResendURL, &http.Client{Timeout: 30 * time.Second})
}

// NewResendWithClient returns a Sender with a custom endpoint and HTTP client
// (useful for testing).
func NewResendWithClient(apiKey, from, endpoint string, hc HTTPClient) *Resend {
	return &Resend{apiKey: apiKey, from: from, endpoint: endpoint, client: hc}
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send delivers one message. Any non-2xx response is an error; the caller
// decides whether to record delivery.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    r.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}
