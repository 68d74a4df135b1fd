package leads

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(\+82|0)\d{9,11}$`)
)

// User-facing messages, shown next to the offending input.
const (
	MsgNameRequired   = "이름을 입력해주세요"
	MsgNameTooShort   = "이름은 2자 이상이어야 합니다"
	MsgEmailRequired  = "이메일을 입력해주세요"
	MsgEmailInvalid   = "올바른 이메일 형식이 아닙니다"
	MsgPhoneRequired  = "전화번호를 입력해주세요"
	MsgPhoneInvalid   = "올바른 전화번호 형식이 아닙니다 (예: 010-1234-5678)"
	MsgCategoryReq    = "브랜드를 선택해주세요"
	MsgCategoryBad    = "목록에 있는 브랜드를 선택해주세요"
	MsgAreaReq        = "지역을 선택해주세요"
	MsgAreaBad        = "서비스 가능 지역을 선택해주세요"
	MsgAttachmentType = "이미지 파일만 업로드할 수 있습니다"
	MsgAttachmentSize = "파일 크기는 10MB 이하여야 합니다"
	MsgAttachmentMax  = "첨부 가능한 사진 수를 초과했습니다"
)

// DefaultMaxAttachmentBytes is the per-photo upload limit.
const DefaultMaxAttachmentBytes int64 = 10 << 20

// ValidateField checks a single value against its format rule. It returns nil
// when the value is acceptable or a *FieldError carrying the message.
func ValidateField(f Field, value string) error {
	switch f {
	case FieldName:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return missing(f, MsgNameRequired)
		}
		if utf8.RuneCountInString(trimmed) < 2 {
			return invalid(f, MsgNameTooShort)
		}
	case FieldEmail:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return missing(f, MsgEmailRequired)
		}
		if !emailPattern.MatchString(trimmed) {
			return invalid(f, MsgEmailInvalid)
		}
	case FieldPhone:
		clean := CleanPhone(value)
		if clean == "" {
			return missing(f, MsgPhoneRequired)
		}
		if !phonePattern.MatchString(clean) {
			return invalid(f, MsgPhoneInvalid)
		}
	case FieldCategory:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return missing(f, MsgCategoryReq)
		}
		if !IsCategory(trimmed) {
			return invalid(f, MsgCategoryBad)
		}
	case FieldArea:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return missing(f, MsgAreaReq)
		}
		if !IsArea(trimmed) {
			return invalid(f, MsgAreaBad)
		}
	}
	return nil
}

// CleanPhone drops the separators users type between digit groups.
func CleanPhone(value string) string {
	return strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(strings.TrimSpace(value))
}

// ValidateAttachment accepts image uploads up to maxBytes. A non-positive
// maxBytes falls back to DefaultMaxAttachmentBytes.
func ValidateAttachment(a Attachment, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.ContentType)), "image/") {
		return fmt.Errorf("%w: %s: %s", ErrInvalidAttachment, a.Filename, MsgAttachmentType)
	}
	size := a.Size
	if n := int64(len(a.Data)); n > size {
		size = n
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %s: %s", ErrInvalidAttachment, a.Filename, MsgAttachmentSize)
	}
	return nil
}
