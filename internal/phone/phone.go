// internal/phone/phone.go
package phone

import "strings"

// DefaultCountryCode is used when a caller does not pick one.
const DefaultCountryCode = "+91"

// Normalize converts a free-form phone number into +<country><digits>.
//
// Input starting with '+' keeps its own country code and only loses
// non-digit characters. Otherwise non-digits and leading zeros are dropped
// and countryCode is prepended unless the digits already start with it.
func Normalize(input, countryCode string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "+") {
		return "+" + digitsOnly(trimmed)
	}

	digits := strings.TrimLeft(digitsOnly(trimmed), "0")
	codeDigits := strings.TrimPrefix(countryCode, "+")

	if strings.HasPrefix(digits, codeDigits) {
		return "+" + digits
	}
	return countryCode + digits
}

// Digits returns only the decimal digits of s, which is the form chat
// deep links expect.
func Digits(s string) string {
	return digitsOnly(s)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
