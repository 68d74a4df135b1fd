package leads

import "errors"

var (
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("leads: required field missing")

	// ErrInvalidField is returned when a field fails its format rule.
	ErrInvalidField = errors.New("leads: field invalid")

	// ErrInvalidAttachment is returned for non-image, oversized or excess files.
	ErrInvalidAttachment = errors.New("leads: attachment rejected")

	// ErrUnknownVariant is returned for an unrecognized deployment variant.
	ErrUnknownVariant = errors.New("leads: unknown variant")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)

// FieldError carries the user-facing message for a single field.
type FieldError struct {
	Field   Field
	Message string
	kind    error
}

func (e *FieldError) Error() string { return e.Message }

// Unwrap lets callers test for ErrMissingField or ErrInvalidField.
func (e *FieldError) Unwrap() error { return e.kind }

func missing(f Field, msg string) *FieldError {
	return &FieldError{Field: f, Message: msg, kind: ErrMissingField}
}

func invalid(f Field, msg string) *FieldError {
	return &FieldError{Field: f, Message: msg, kind: ErrInvalidField}
}
