// Package form validates and cleans user-submitted forms.
package form

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a user-facing message.
type FieldErrors map[string]string

// ValidationError is returned when a submitted form has invalid fields.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return fmt.Sprintf("invalid form fields: %s", strings.Join(sortedCopy(keys), ", "))
}

// Messages maps "field.tag" or "field" to the message reported for a
// failed rule. Lookups try the specific key first.
type Messages map[string]string

// Validator wraps go-playground/validator with the storefront rules:
//
//	notblank  string has a non-space character
//	mailbox   one "@", non-empty local part, a "." inside the domain, no spaces
//
// Field names in errors are taken from json tags.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "mailbox", func(fl validator.FieldLevel) bool {
		return IsMailbox(fl.Field().String())
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Check validates s and returns a *ValidationError describing every failed
// field, or nil.
func (val *Validator) Check(s any, messages Messages) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}
	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = messages.lookup(name, fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return field + " is invalid"
}

// IsMailbox reports whether s looks like a deliverable address: exactly one
// "@" with a non-empty local part, and a domain containing a "." with
// characters on both sides. Whitespace anywhere is rejected.
func IsMailbox(s string) bool {
	if strings.ContainsFunc(s, unicode.IsSpace) {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}
	if len(domain) < 3 {
		return false
	}
	return strings.Contains(domain[1:len(domain)-1], ".")
}
