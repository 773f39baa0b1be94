package validate

import (
	"regexp"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSKU   = regexp.MustCompile(`^[A-Za-z0-9-]{1,50}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9]{6,13}$`)
)

// ID validates a simple resource identifier (product/customer/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func SKU(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, s != "" && reSKU.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Qty clamps a line quantity at the HTTP edge. Non-positive values collapse
// to 0, which settlement then rejects; anything above 500 is capped.
func Qty(n int) int {
	if n < 1 {
		return 0
	}
	if n > 500 {
		return 500
	}
	return n
}

// Reason validates the mandatory free-text reason on manual stock edits.
func Reason(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 200 {
		return "", false
	}
	return s, true
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

// Phone normalizes a local 11-digit number starting with 0 to its +88 form
// and accepts already-prefixed numbers as-is. Empty input is allowed since
// the field is optional.
func Phone(s string) (string, bool) {
	s = strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), " ", ""), "-", "")
	if s == "" {
		return "", true
	}
	if !rePhone.MatchString(s) {
		return "", false
	}
	if strings.HasPrefix(s, "+88") && len(s) == 14 {
		return s, true
	}
	if len(s) == 11 && strings.HasPrefix(s, "0") {
		return "+88" + s, true
	}
	return s, true
}

// Password enforces the staff password policy.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
