package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// SheetsWebhook posts each lead to a spreadsheet webhook (an Apps Script
// web app or similar).
type SheetsWebhook struct {
	url        string
	httpClient *http.Client
}

// NewSheetsWebhook creates the adapter. A nil client gets a 10s timeout client.
func NewSheetsWebhook(url string, httpClient *http.Client) *SheetsWebhook {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SheetsWebhook{url: url, httpClient: httpClient}
}

func (s *SheetsWebhook) Name() string { return NameSheetsWebhook }

type sheetsWebhookPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
}

// Deliver sends one row. Any non-2xx response is an error.
func (s *SheetsWebhook) Deliver(ctx context.Context, sub *leads.Submission) (string, error) {
	attr := sub.Attribution.WithDefaults()
	payload, err := json.Marshal(sheetsWebhookPayload{
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       sub.Phone,
		UTMSource:   attr.Source,
		UTMMedium:   attr.Medium,
		UTMCampaign: attr.Campaign,
	})
	if err != nil {
		return "", fmt.Errorf("delivery: marshal sheets payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("delivery: build sheets request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("delivery: sheets webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("delivery: sheets webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return "", nil
}
