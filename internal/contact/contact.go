// Package contact relays visitor messages from the contact form to the site
// owner's inbox, optionally through a SQLite outbox that retries failed
// deliveries.
package contact

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Errors returned by Validate and Relay.Send. Their messages are shown to
// visitors as-is.
var (
	ErrMissingFields  = errors.New("missing fields")
	ErrInvalidEmail   = errors.New("invalid email")
	ErrTooLong        = errors.New("field too long")
	ErrNotConfigured  = errors.New("service not configured")
	ErrDeliveryFailed = errors.New("delivery failed")
)

// SuccessMessage is the confirmation shown after a message is delivered.
const SuccessMessage = "Message sent successfully"

// Field length limits, counted in runes.
const (
	MaxNameLen    = 100
	MaxEmailLen   = 254
	MaxSubjectLen = 200
	MaxMessageLen = 5000
)

// Submission is one message from the contact form.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ValidationError reports which field failed. It unwraps to one of
// ErrMissingFields, ErrInvalidEmail or ErrTooLong.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Normalize trims every field. Name and subject are collapsed to a single
// line since they end up in mail headers.
func (s Submission) Normalize() Submission {
	return Submission{
		Name:    strings.Join(strings.Fields(s.Name), " "),
		Email:   strings.TrimSpace(s.Email),
		Subject: strings.Join(strings.Fields(s.Subject), " "),
		Message: strings.TrimSpace(s.Message),
	}
}

// Validate normalizes s and checks it. Every field is required.
func Validate(s Submission) (Submission, error) {
	s = s.Normalize()

	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", s.Name},
		{"email", s.Email},
		{"subject", s.Subject},
		{"message", s.Message},
	} {
		if f.value == "" {
			return s, &ValidationError{Field: f.name, Err: ErrMissingFields}
		}
	}

	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"name", s.Name, MaxNameLen},
		{"email", s.Email, MaxEmailLen},
		{"subject", s.Subject, MaxSubjectLen},
		{"message", s.Message, MaxMessageLen},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return s, &ValidationError{Field: f.name, Err: ErrTooLong}
		}
	}

	if !validEmail(s.Email) {
		return s, &ValidationError{Field: "email", Err: ErrInvalidEmail}
	}
	return s, nil
}

// validEmail accepts a bare addr-spec with a dotted domain. Display-name
// forms such as "A <a@b.c>" are rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
