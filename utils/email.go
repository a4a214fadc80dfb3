package utils

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaskEmail renders an address as its first local character plus "***" and the
// domain, e.g. alice@example.com -> a***@example.com. The masked form is
// computed once when a review record is created and stored alongside the real
// address.
func MaskEmail(email string) (string, error) {
	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" || domain == "" {
		return "", errors.New("invalid email address")
	}
	// Keep the whole first rune so multibyte names survive the cut.
	_, size := utf8.DecodeRuneInString(local)
	return local[:size] + "***@" + domain, nil
}
