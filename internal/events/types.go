package events

import (
	"time"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// LeadSubmittedV1 is published once a lead has been accepted.
type LeadSubmittedV1 struct {
	LeadID      string    `json:"lead_id"`
	Variant     string    `json:"variant"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone"`
	Category    string    `json:"category,omitempty"`
	Area        string    `json:"area,omitempty"`
	PhotoCount  int       `json:"photo_count,omitempty"`
	UTMSource   string    `json:"utm_source"`
	UTMMedium   string    `json:"utm_medium"`
	UTMCampaign string    `json:"utm_campaign"`
	UTMTerm     string    `json:"utm_term,omitempty"`
	UTMContent  string    `json:"utm_content,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TypeLeadSubmittedV1 is the envelope type of LeadSubmittedV1.
const TypeLeadSubmittedV1 = "lead.submitted.v1"

func (LeadSubmittedV1) EventType() string { return TypeLeadSubmittedV1 }

func (e LeadSubmittedV1) LeadKey() string { return e.LeadID }

// NewLeadSubmittedV1 copies the fields downstream consumers need. Photo
// bytes and client metadata are not carried.
func NewLeadSubmittedV1(sub *leads.Submission) LeadSubmittedV1 {
	return LeadSubmittedV1{
		LeadID:      sub.ID,
		Variant:     string(sub.Variant),
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       sub.Phone,
		Category:    sub.Category,
		Area:        sub.Area,
		PhotoCount:  len(sub.Attachments),
		UTMSource:   sub.Attribution.Source,
		UTMMedium:   sub.Attribution.Medium,
		UTMCampaign: sub.Attribution.Campaign,
		UTMTerm:     sub.Attribution.Term,
		UTMContent:  sub.Attribution.Content,
		SubmittedAt: sub.SubmittedAt,
	}
}
