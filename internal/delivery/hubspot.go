package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// HubSpot defaults.
const (
	DefaultHubSpotBaseURL    = "https://api.hubapi.com"
	DefaultHubSpotLeadSource = "Korea LP - Demand Validation"
)

// HubSpotCRM creates a contact per lead.
type HubSpotCRM struct {
	apiKey     string
	baseURL    string
	leadSource string
	httpClient *http.Client
}

// HubSpotConfig configures the CRM adapter.
type HubSpotConfig struct {
	APIKey     string
	BaseURL    string
	LeadSource string
	HTTPClient *http.Client
}

func NewHubSpotCRM(cfg HubSpotConfig) *HubSpotCRM {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHubSpotBaseURL
	}
	if cfg.LeadSource == "" {
		cfg.LeadSource = DefaultHubSpotLeadSource
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HubSpotCRM{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		leadSource: cfg.LeadSource,
		httpClient: cfg.HTTPClient,
	}
}

func (h *HubSpotCRM) Name() string { return NameCRM }

type hubspotContact struct {
	Properties map[string]string `json:"properties"`
}

type hubspotResponse struct {
	ID string `json:"id"`
}

// Deliver creates the contact and returns its HubSpot id.
func (h *HubSpotCRM) Deliver(ctx context.Context, sub *leads.Submission) (string, error) {
	payload, err := json.Marshal(hubspotContact{Properties: h.properties(sub)})
	if err != nil {
		return "", fmt.Errorf("delivery: marshal hubspot contact: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/crm/v3/objects/contacts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("delivery: build hubspot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("delivery: hubspot: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("delivery: hubspot returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var out hubspotResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("delivery: decode hubspot response: %w", err)
	}
	return out.ID, nil
}

func (h *HubSpotCRM) properties(sub *leads.Submission) map[string]string {
	attr := sub.Attribution.WithDefaults()
	props := map[string]string{
		"firstname":       sub.Name,
		"phone":           sub.Phone,
		"utm_source":      attr.Source,
		"utm_medium":      attr.Medium,
		"utm_campaign":    attr.Campaign,
		"lead_source":     h.leadSource,
		"submission_date": sub.SubmittedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	if sub.Email != "" {
		props["email"] = sub.Email
	}
	if sub.Category != "" {
		props["luxury_brand"] = sub.Category
	}
	if sub.Area != "" {
		props["service_area"] = sub.Area
	}
	if n := len(sub.Attachments); n > 0 {
		props["photo_count"] = strconv.Itoa(n)
	}
	return props
}
