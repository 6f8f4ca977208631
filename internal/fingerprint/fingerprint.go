// Package fingerprint identifies cards by content so re-imports don't duplicate them.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize lowercases, trims, and unifies line endings of front and back, then joins them.
// The note is left out: editing a note doesn't make a different card.
func Normalize(front, back string) string {
	clean := func(s string) string {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.ToLower(strings.TrimSpace(s))
	}
	return clean(front) + "\n" + clean(back)
}

// Of returns the hex SHA-256 of the normalized front and back.
func Of(front, back string) string {
	sum := sha256.Sum256([]byte(Normalize(front, back)))
	return hex.EncodeToString(sum[:])
}
