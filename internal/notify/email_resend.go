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

	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// DefaultResendBaseURL is the public Resend API.
const DefaultResendBaseURL = "https://api.resend.com"

// ResendSender sends emails through the Resend HTTPS API.
type ResendSender struct {
	apiKey     string
	baseURL    string
	fromEmail  string
	fromName   string
	httpClient *http.Client
	logger     *logging.Logger
}

// ResendConfig holds configuration for Resend.
type ResendConfig struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	FromName   string
	HTTPClient *http.Client
}

type resendRequest struct {
	From    string      `json:"from"`
	To      string      `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html,omitempty"`
	Text    string      `json:"text,omitempty"`
	ReplyTo string      `json:"reply_to,omitempty"`
	Tags    []resendTag `json:"tags,omitempty"`
}

type resendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendSender returns nil when no API key is configured.
func NewResendSender(cfg ResendConfig, logger *logging.Logger) *ResendSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultResendBaseURL
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &ResendSender{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
}

// Send posts one message to /emails.
func (s *ResendSender) Send(ctx context.Context, msg EmailMessage) error {
	from := Address(s.fromName, s.fromEmail)
	if msg.From != "" {
		from = Address(msg.FromName, msg.From)
	}
	body := resendRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Body,
		ReplyTo: msg.ReplyTo,
	}
	if msg.Tag != "" {
		body.Tags = []resendTag{{Name: "category", Value: msg.Tag}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notify: marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build resend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("resend send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: resend send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("resend returned error status", "status", resp.StatusCode, "body", string(body), "to", msg.To)
		return fmt.Errorf("notify: resend returned status %d", resp.StatusCode)
	}

	var out resendResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	s.logger.Info("email sent via resend", "to", msg.To, "subject", msg.Subject, "message_id", out.ID)
	return nil
}

var _ EmailSender = (*ResendSender)(nil)
