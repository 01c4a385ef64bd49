// Package validation classifies a candidate note title/body pair as
// acceptable or rejected with a specific reason.
package validation

import (
	"strings"
	"unicode/utf8"
)

const (
	TitleMinLength = 3
	TitleMaxLength = 50
	BodyMaxLength  = 120

	FieldTitle = "title"
	FieldBody  = "body"
)

// Reason is a machine-readable validation failure code.
type Reason string

const (
	TitleTooShort Reason = "TITLE_TOO_SHORT"
	TitleTooLong  Reason = "TITLE_TOO_LONG"
	BodyTooLong   Reason = "BODY_TOO_LONG"
)

// FieldError is a single rejected field. The package-level sentinels are the
// only values returned, so errors.Is works by identity. Its fields are
// read-only through the accessors.
type FieldError struct {
	field   string
	reason  Reason
	message string
}

func (e *FieldError) Error() string {
	return e.message
}

// Field names the rejected field, FieldTitle or FieldBody.
func (e *FieldError) Field() string { return e.field }

func (e *FieldError) Reason() Reason { return e.reason }

// Message is the user-facing text for the violation.
func (e *FieldError) Message() string { return e.message }

var (
	ErrTitleTooShort = &FieldError{field: FieldTitle, reason: TitleTooShort, message: "Title must be at least 3 characters"}
	ErrTitleTooLong  = &FieldError{field: FieldTitle, reason: TitleTooLong, message: "Title must be at most 50 characters"}
	ErrBodyTooLong   = &FieldError{field: FieldBody, reason: BodyTooLong, message: "Text can't be more than 120 characters."}
)

// Error carries every violation found in one request, title first.
type Error struct {
	Violations []*FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations))
	for _, v := range e.Violations {
		errs = append(errs, v)
	}
	return errs
}

// Has reports whether the given reason is among the violations.
func (e *Error) Has(reason Reason) bool {
	for _, v := range e.Violations {
		if v.reason == reason {
			return true
		}
	}
	return false
}

// Fields maps each rejected field to its violation.
func (e *Error) Fields() map[string]*FieldError {
	fields := make(map[string]*FieldError, len(e.Violations))
	for _, v := range e.Violations {
		fields[v.field] = v
	}
	return fields
}

// Title checks the title length bounds, inclusive.
func Title(title string) *FieldError {
	n := utf8.RuneCountInString(title)
	switch {
	case n < TitleMinLength:
		return ErrTitleTooShort
	case n > TitleMaxLength:
		return ErrTitleTooLong
	}
	return nil
}

// Body checks the body upper bound. An empty body is valid.
func Body(body string) *FieldError {
	if utf8.RuneCountInString(body) > BodyMaxLength {
		return ErrBodyTooLong
	}
	return nil
}

// Validate evaluates both fields and returns nil or an *Error listing every
// violation.
func Validate(title, body string) error {
	var violations []*FieldError
	if v := Title(title); v != nil {
		violations = append(violations, v)
	}
	if v := Body(body); v != nil {
		violations = append(violations, v)
	}
	if len(violations) == 0 {
		return nil
	}
	return &Error{Violations: violations}
}
