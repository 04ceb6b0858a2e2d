package core

import "strings"

// NormalizePhone canonicalizes a raw phone number into an
// international-prefixed digit string suitable for the SMS gateway.
//
// Recognized country codes pass through unchanged: 254 (Kenya), 91 (India),
// and 1 followed by exactly 10 digits (North America). Anything else is
// treated as a local Kenyan number: one leading zero is stripped and 254 is
// prepended when the remainder is 9 or 10 digits. Everything else fails with
// ErrInvalidPhoneNumber.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) < 9 {
		return "", ErrInvalidPhoneNumber
	}

	switch {
	case strings.HasPrefix(digits, "254"):
		return digits, nil
	case strings.HasPrefix(digits, "91"):
		return digits, nil
	case strings.HasPrefix(digits, "1") && len(digits) == 11:
		return digits, nil
	}

	local := strings.TrimPrefix(digits, "0")
	if len(local) == 9 || len(local) == 10 {
		return "254" + local, nil
	}

	return "", ErrInvalidPhoneNumber
}
