package domain

import "strings"

// maskVisible is the number of trailing characters left visible by MaskSecret.
const maskVisible = 4

// MaskSecret returns the display-masked form of a secret: "****" followed by
// its last four characters. Secrets of four characters or fewer are fully masked.
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) <= maskVisible {
		return "****"
	}
	return "****" + secret[len(secret)-maskVisible:]
}

// IsMasked reports whether value looks like a MaskSecret output.
func IsMasked(value string) bool {
	return strings.HasPrefix(value, "****")
}
