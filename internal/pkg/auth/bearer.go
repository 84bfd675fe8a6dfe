package auth

import "strings"

// BearerToken strips an optional "Bearer " prefix (case-insensitive).
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
