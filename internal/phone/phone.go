// Package phone normalizes raw telephone numbers into the canonical local form
// used as the contact lookup key.
package phone

import "strings"

// countryPrefix is the Indonesian country calling code.
const countryPrefix = "62"

// Normalize strips every non-digit from raw and collapses a leading "62"
// country code into a local "0" prefix. Numbers with other country codes are
// returned as bare digits. The result never contains a non-digit and never
// starts with "62", so Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, countryPrefix) {
		return "0" + digits[len(countryPrefix):]
	}
	return digits
}

// NormalizePtr is Normalize for an optional number. A nil number yields "".
func NormalizePtr(raw *string) string {
	if raw == nil {
		return ""
	}
	return Normalize(*raw)
}
