package recipient

import (
	"regexp"
	"strings"
)

// e164Pattern is the strict international-format grammar: a leading +, a
// non-zero digit, then 1 to 14 more digits.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Normalize canonicalizes a raw identifier into international form, or returns
// "" when the input is unnormalizable. Rules, in order:
//
//   - exactly 10 digits remain after stripping → prefix the country code;
//   - 11+ digits and the raw input lacked a leading + → prefix +;
//   - raw input already starts with + → returned unchanged;
//   - anything else → "".
//
// Normalize is idempotent: a canonical identifier starts with + and more than
// 10 digits, so it passes through unchanged.
func Normalize(raw, countryCode string) string {
	raw = strings.TrimSpace(raw)
	digits := stripNonDigits(raw)

	if len(digits) == 10 {
		return "+" + countryCode + digits
	}
	if len(digits) >= 11 && !strings.HasPrefix(raw, "+") {
		return "+" + digits
	}
	if strings.HasPrefix(raw, "+") {
		return raw
	}
	return ""
}

// IsValid reports whether the identifier satisfies the international-format
// grammar. The empty string is never valid.
func IsValid(identifier string) bool {
	return e164Pattern.MatchString(identifier)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
