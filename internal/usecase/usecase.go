// Package usecase holds the application services behind the HTTP handlers.
package usecase

import (
	"net/mail"
	"strings"
)

// normalizeEmail lowercases and trims an address. All stores key emails in
// this form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail reports whether the address parses as RFC 5322.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
