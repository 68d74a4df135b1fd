package leads

import "strings"

const maxPhoneDigits = 11

// FormatPhone rewrites raw input into the NNN-NNNN-NNNN display pattern as the
// user types. Non-digits are dropped and anything past 11 digits is cut, so
// formatting its own output returns the same string.
func FormatPhone(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == maxPhoneDigits {
				break
			}
		}
	}
	d := digits.String()
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 7:
		return d[:3] + "-" + d[3:]
	default:
		return d[:3] + "-" + d[3:7] + "-" + d[7:]
	}
}
