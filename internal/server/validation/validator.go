// Package validation checks account fields before they reach the store.
//
// A Validator is used once per request: each check records its failures and
// Err returns them all together, so a response lists every bad field.
package validation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxEmailLength    = 254
	MaxNameLength     = 150
	MinPasswordLength = 8
	MaxPasswordLength = 150
)

const (
	msgRequired          = "This field is required."
	msgNull              = "This field may not be null."
	msgBlank             = "This field may not be blank."
	msgTooLong           = "Ensure this field has no more than %s characters."
	msgTooShort          = "Ensure this field has at least %s characters."
	msgInvalidEmail      = "Enter a valid email address."
	msgInvalidCharacters = "Contains invalid characters"
	msgDuplicateEmail    = "user with this email already exists."
	msgDuplicateUsername = "User already exists"
)

// Word characters are Unicode letters, digits and underscore.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+\-]+$`)

var (
	emailTags    = fmt.Sprintf("required,max=%d,email", MaxEmailLength)
	usernameTags = fmt.Sprintf("required,max=%d,username", MaxNameLength)
	passwordTags = fmt.Sprintf("required,min=%d,max=%d", MinPasswordLength, MaxPasswordLength)
)

var fields = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Lookup answers uniqueness questions. users.Repository satisfies it.
type Lookup interface {
	EmailTaken(ctx context.Context, email string, excludeID string) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID string) (bool, error)
}

type Validator struct {
	lookup Lookup
	errs   Error
	failed error
}

// New returns a Validator that checks uniqueness through lookup.
func New(lookup Lookup) *Validator {
	return &Validator{lookup: lookup}
}

// Err returns a lookup failure if one happened, then the aggregated
// *Error if any field failed, otherwise nil.
func (v *Validator) Err() error {
	if v.failed != nil {
		return v.failed
	}
	if v.errs.Empty() {
		return nil
	}
	errs := v.errs
	return &errs
}

// Email checks format and uniqueness and returns the normalized address.
// excludeID names the user being updated, empty on create.
func (v *Validator) Email(ctx context.Context, field string, value Input, excludeID string) string {
	email, ok := v.check(field, value, emailTags)
	if !ok {
		return email
	}
	email = NormalizeEmail(email)

	taken, err := v.lookup.EmailTaken(ctx, email, excludeID)
	if err != nil {
		v.fail(fmt.Errorf("email lookup: %w", err))
		return email
	}
	if taken {
		v.errs.Add(field, DuplicateEmail, msgDuplicateEmail)
	}
	return email
}

// Username checks length, charset and uniqueness.
func (v *Validator) Username(ctx context.Context, field string, value Input, excludeID string) string {
	username, ok := v.check(field, value, usernameTags)
	if !ok {
		return username
	}

	taken, err := v.lookup.UsernameTaken(ctx, username, excludeID)
	if err != nil {
		v.fail(fmt.Errorf("username lookup: %w", err))
		return username
	}
	if taken {
		v.errs.Add(field, DuplicateUsername, msgDuplicateUsername)
	}
	return username
}

// Password checks length. Surrounding whitespace is kept and counted, but a
// password of nothing but whitespace is blank.
func (v *Validator) Password(field string, value Input) string {
	password, ok := v.present(field, value)
	if !ok {
		return ""
	}
	if strings.TrimSpace(password) == "" {
		v.errs.Add(field, Blank, msgBlank)
		return ""
	}
	v.apply(field, password, passwordTags)
	return password
}

// RequiredText checks a non-blank value of at most maxLen characters.
func (v *Validator) RequiredText(field string, value Input, maxLen int) string {
	text, _ := v.check(field, value, fmt.Sprintf("required,max=%d", maxLen))
	return text
}

// check trims value and runs tags over it. It reports whether the value
// passed so uniqueness lookups can be skipped for malformed input.
func (v *Validator) check(field string, value Input, tags string) (string, bool) {
	text, ok := v.present(field, value)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(text)
	return trimmed, v.apply(field, trimmed, tags)
}

// present records Required for a missing key and Null for an explicit null.
func (v *Validator) present(field string, value Input) (string, bool) {
	switch {
	case !value.Set:
		v.errs.Add(field, Required, msgRequired)
		return "", false
	case value.Value == nil:
		v.errs.Add(field, Null, msgNull)
		return "", false
	}
	return *value.Value, true
}

func (v *Validator) apply(field, value, tags string) bool {
	err := fields.Var(value, tags)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.fail(err)
		return false
	}
	for _, fe := range verrs {
		code, msg := describe(fe)
		v.errs.Add(field, code, msg)
	}
	return false
}

func (v *Validator) fail(err error) {
	if v.failed == nil {
		v.failed = err
	}
}

func describe(fe validator.FieldError) (Code, string) {
	switch fe.Tag() {
	case "required":
		return Blank, msgBlank
	case "max":
		return TooLong, fmt.Sprintf(msgTooLong, fe.Param())
	case "min":
		return TooShort, fmt.Sprintf(msgTooShort, fe.Param())
	case "email":
		return InvalidEmail, msgInvalidEmail
	case "username":
		return InvalidCharacters, msgInvalidCharacters
	default:
		return Code(fe.Tag()), fe.Error()
	}
}

// NormalizeEmail lower-cases the domain part and keeps the local part as typed.
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// Require records Required or Null when value is absent and returns it
// untouched otherwise.
func (v *Validator) Require(field string, value Input) string {
	text, _ := v.present(field, value)
	return text
}
