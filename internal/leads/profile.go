package leads

import (
	"errors"
	"fmt"
	"strings"
)

// Variant identifies which deployment of the form and endpoint is running.
type Variant string

const (
	// VariantInquiry collects name, email and phone as JSON.
	VariantInquiry Variant = "inquiry"
	// VariantPhoto collects name, phone, brand, area and photos as multipart
	// across a two-step wizard.
	VariantPhoto Variant = "photo"
	// VariantDatabase stores the lead in the managed database and records the
	// originating address and client identifier.
	VariantDatabase Variant = "database"
)

// Profile describes the fields and limits of one deployed variant.
type Profile struct {
	Variant            Variant
	Path               string
	Steps              [][]Field
	Required           map[Field]bool
	Multipart          bool
	RecordsClientMeta  bool
	MaxAttachments     int
	MaxAttachmentBytes int64
}

// ProfileFor returns the built-in profile for a variant.
func ProfileFor(v Variant) (Profile, error) {
	switch v {
	case VariantInquiry:
		return Profile{
			Variant:  VariantInquiry,
			Path:     "/api/lead",
			Steps:    [][]Field{{FieldName, FieldEmail, FieldPhone}},
			Required: requiredSet(FieldName, FieldEmail, FieldPhone),
		}, nil
	case VariantPhoto:
		return Profile{
			Variant: VariantPhoto,
			Path:    "/api/lead-photo",
			Steps: [][]Field{
				{FieldName, FieldPhone},
				{FieldCategory, FieldArea},
			},
			Required:           requiredSet(FieldName, FieldPhone),
			Multipart:          true,
			MaxAttachments:     5,
			MaxAttachmentBytes: DefaultMaxAttachmentBytes,
		}, nil
	case VariantDatabase:
		return Profile{
			Variant:           VariantDatabase,
			Path:              "/api/lead-db",
			Steps:             [][]Field{{FieldName, FieldEmail, FieldPhone}},
			Required:          requiredSet(FieldName, FieldPhone),
			RecordsClientMeta: true,
		}, nil
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
}

// ParseVariant normalizes a configured variant name.
func ParseVariant(raw string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(raw)))
	if _, err := ProfileFor(v); err != nil {
		return "", err
	}
	return v, nil
}

// StepCount is the number of wizard steps; single-page forms have one.
func (p Profile) StepCount() int {
	if len(p.Steps) == 0 {
		return 1
	}
	return len(p.Steps)
}

// StepFields returns the fields interactable on a 1-based step.
func (p Profile) StepFields(step int) []Field {
	if step < 1 || step > len(p.Steps) {
		return nil
	}
	return append([]Field(nil), p.Steps[step-1]...)
}

// Fields returns every field across all steps in display order.
func (p Profile) Fields() []Field {
	var out []Field
	for _, step := range p.Steps {
		out = append(out, step...)
	}
	return out
}

// IsRequired reports whether the field must be present.
func (p Profile) IsRequired(f Field) bool {
	return p.Required[f]
}

// AcceptsAttachments reports whether the variant takes photo uploads.
func (p Profile) AcceptsAttachments() bool {
	return p.Multipart && p.MaxAttachments > 0
}

// CheckField validates one field under this profile: optional fields are
// only checked when a value was supplied.
func (p Profile) CheckField(f Field, value string) error {
	if !p.IsRequired(f) && strings.TrimSpace(value) == "" {
		return nil
	}
	return ValidateField(f, value)
}

// CheckAttachments enforces the per-file rule and the count limit.
func (p Profile) CheckAttachments(files []Attachment) error {
	if len(files) == 0 {
		return nil
	}
	if !p.AcceptsAttachments() {
		return fmt.Errorf("%w: attachments not accepted", ErrInvalidAttachment)
	}
	if len(files) > p.MaxAttachments {
		return fmt.Errorf("%w: %s", ErrInvalidAttachment, MsgAttachmentMax)
	}
	for _, f := range files {
		if err := ValidateAttachment(f, p.MaxAttachmentBytes); err != nil {
			return err
		}
	}
	return nil
}

// Validate re-checks a whole submission server-side. Missing required fields
// are reported ahead of malformed ones so callers can pick the right message.
func (p Profile) Validate(in Input) error {
	var missingErrs, invalidErrs []error
	for _, f := range p.Fields() {
		err := p.CheckField(f, in.Value(f))
		switch {
		case err == nil:
		case errors.Is(err, ErrMissingField):
			missingErrs = append(missingErrs, err)
		default:
			invalidErrs = append(invalidErrs, err)
		}
	}
	if len(missingErrs) > 0 {
		return errors.Join(missingErrs...)
	}
	if len(invalidErrs) > 0 {
		return errors.Join(invalidErrs...)
	}
	return p.CheckAttachments(in.Attachments)
}

func requiredSet(fields ...Field) map[Field]bool {
	out := make(map[Field]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
