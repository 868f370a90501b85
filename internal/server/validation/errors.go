package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kazna/user-service/internal/common"
)

// Code identifies why a field was rejected. Codes are errors so callers can
// match an aggregate with errors.Is(err, validation.DuplicateEmail).
type Code string

const (
	Required          Code = "required"
	Null              Code = "null"
	Blank             Code = "blank"
	TooLong           Code = "max_length"
	TooShort          Code = "min_length"
	InvalidEmail      Code = "invalid_email"
	InvalidCharacters Code = "invalid_characters"
	DuplicateEmail    Code = "duplicate_email"
	DuplicateUsername Code = "duplicate_username"
	InvalidPassword   Code = "invalid_password"
)

func (c Code) Error() string { return string(c) }

// FieldError is a single rejection of a field value.
type FieldError struct {
	Code    Code
	Message string
}

// Error aggregates every rejected field of one request.
type Error struct {
	Fields map[string][]FieldError
}

// NewError returns an aggregate holding a single failure.
func NewError(field string, code Code, message string) *Error {
	e := &Error{}
	e.Add(field, code, message)
	return e
}

func (e *Error) Add(field string, code Code, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]FieldError)
	}
	e.Fields[field] = append(e.Fields[field], FieldError{Code: code, Message: message})
}

func (e *Error) Empty() bool { return len(e.Fields) == 0 }

// Messages renders the aggregate as field -> messages, the shape of the
// HTTP error body.
func (e *Error) Messages() map[string][]string {
	out := make(map[string][]string, len(e.Fields))
	for field, errs := range e.Fields {
		for _, fe := range errs {
			out[field] = append(out[field], fe.Message)
		}
	}
	return out
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, fe := range e.Fields[field] {
			parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Code))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is matches any Code carried by the aggregate.
func (e *Error) Is(target error) bool {
	code, ok := target.(Code)
	if !ok {
		return false
	}
	for _, errs := range e.Fields {
		for _, fe := range errs {
			if fe.Code == code {
				return true
			}
		}
	}
	return false
}

// FromStore converts a store uniqueness violation into the field error the
// validator would have reported. Other errors are returned unchanged.
func FromStore(err error) error {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return NewError("email", DuplicateEmail, msgDuplicateEmail)
	case errors.Is(err, common.ErrDuplicateUsername):
		return NewError("username", DuplicateUsername, msgDuplicateUsername)
	default:
		return err
	}
}
