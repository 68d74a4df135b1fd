package leads

import (
	"strings"
	"time"
)

// Field names a single form input.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldCategory Field = "category"
	FieldArea     Field = "area"
)

// Attribution holds the campaign tags captured from the landing page URL.
type Attribution struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// Attribution defaults applied when a tag is absent.
const (
	DefaultSource   = "direct"
	DefaultMedium   = "none"
	DefaultCampaign = "none"
)

// WithDefaults fills empty source/medium/campaign tags.
func (a Attribution) WithDefaults() Attribution {
	a.Source = firstNonEmpty(a.Source, DefaultSource)
	a.Medium = firstNonEmpty(a.Medium, DefaultMedium)
	a.Campaign = firstNonEmpty(a.Campaign, DefaultCampaign)
	return a
}

// Attachment is one uploaded product photo.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Input is the raw, unvalidated payload of a lead submission.
type Input struct {
	Name        string
	Email       string
	Phone       string
	Category    string
	Area        string
	Attachments []Attachment
	Attribution Attribution
}

// Value returns the raw value of a text field.
func (in Input) Value(f Field) string {
	switch f {
	case FieldName:
		return in.Name
	case FieldEmail:
		return in.Email
	case FieldPhone:
		return in.Phone
	case FieldCategory:
		return in.Category
	case FieldArea:
		return in.Area
	}
	return ""
}

// Metadata is derived by the intake endpoint, never supplied by the client.
type Metadata struct {
	IPAddress string
	UserAgent string
}

// Unknown is recorded when proxy headers do not identify the client.
const Unknown = "unknown"

// Submission is an accepted lead. It is never updated once built.
type Submission struct {
	ID          string       `json:"id"`
	Variant     Variant      `json:"variant"`
	Name        string       `json:"name"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone"`
	Category    string       `json:"category,omitempty"`
	Area        string       `json:"area,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Attribution Attribution  `json:"attribution"`
	IPAddress   string       `json:"ip_address,omitempty"`
	UserAgent   string       `json:"user_agent,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// NewSubmission builds the immutable record for an already validated input.
func NewSubmission(p Profile, in Input, meta Metadata, id string, now time.Time) *Submission {
	sub := &Submission{
		ID:          id,
		Variant:     p.Variant,
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Category:    strings.TrimSpace(in.Category),
		Area:        strings.TrimSpace(in.Area),
		Attribution: in.Attribution.WithDefaults(),
		SubmittedAt: now.UTC(),
	}
	if len(in.Attachments) > 0 {
		sub.Attachments = append([]Attachment(nil), in.Attachments...)
	}
	if p.RecordsClientMeta {
		sub.IPAddress = firstNonEmpty(strings.TrimSpace(meta.IPAddress), Unknown)
		sub.UserAgent = firstNonEmpty(strings.TrimSpace(meta.UserAgent), Unknown)
	}
	return sub
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
