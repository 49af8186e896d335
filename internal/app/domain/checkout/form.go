// Package checkout implements the checkout form's field state and the
// two-phase (light on change, strict on blur) validation policy.
package checkout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field names accepted by the form.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldAddress = "address"
	FieldPhone   = "phone"
)

// Rule identifies the validation rule bound to a field.
type Rule string

const (
	RuleText   Rule = "text"
	RuleEmail  Rule = "email"
	RuleNumber Rule = "number"
)

var defaultRules = map[string]Rule{
	FieldName:    RuleText,
	FieldEmail:   RuleEmail,
	FieldAddress: RuleText,
	FieldPhone:   RuleNumber,
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Form tracks values, per-field errors and touched flags for one checkout
// form mount. It is not safe for concurrent use; the owning service
// serializes access.
type Form struct {
	values  map[string]string
	errors  map[string]string
	touched map[string]bool
	rules   map[string]Rule
}

// NewForm returns an empty form with the standard four fields.
func NewForm() *Form {
	return &Form{
		values:  map[string]string{FieldName: "", FieldEmail: "", FieldAddress: "", FieldPhone: ""},
		errors:  make(map[string]string),
		touched: make(map[string]bool),
		rules:   defaultRules,
	}
}

// SetValue records a new value for the field and runs the light validation
// pass: emptiness is always enforced, but the email shape check only applies
// once the field has been blurred at least once. An unknown field is ignored.
func (f *Form) SetValue(field, value string) {
	if _, ok := f.rules[field]; !ok {
		return
	}
	f.values[field] = value
	f.validate(field, value, f.touched[field])
}

// Touch marks the field as blurred and runs the strict validation pass
// against its current value.
func (f *Form) Touch(field string) {
	if _, ok := f.rules[field]; !ok {
		return
	}
	f.touched[field] = true
	f.validate(field, f.values[field], true)
}

// validate applies the field's rule. strict enables the checks that only
// fire after first blur.
func (f *Form) validate(field, value string, strict bool) {
	if strings.TrimSpace(value) == "" {
		f.errors[field] = fmt.Sprintf("%s is required.", field)
		return
	}

	switch f.rules[field] {
	case RuleEmail:
		if strict && !emailPattern.MatchString(value) {
			f.errors[field] = "Invalid email address"
			return
		}
	case RuleNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			f.errors[field] = "Value must be a number"
			return
		}
	}
	delete(f.errors, field)
}

// Reset restores the form to its initial empty state so a second order can
// be composed without remounting.
func (f *Form) Reset() {
	for field := range f.values {
		f.values[field] = ""
	}
	f.errors = make(map[string]string)
	f.touched = make(map[string]bool)
}

// Value returns the current value of a field.
func (f *Form) Value(field string) string { return f.values[field] }

// Error returns the current error message for a field, or "" if none.
func (f *Form) Error(field string) string { return f.errors[field] }

// Touched reports whether the field has been blurred at least once.
func (f *Form) Touched(field string) bool { return f.touched[field] }

// Values returns a copy of all field values.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Errors returns a copy of all current field errors.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// TouchedFields returns a copy of the touched flags.
func (f *Form) TouchedFields() map[string]bool {
	out := make(map[string]bool, len(f.touched))
	for k, v := range f.touched {
		out[k] = v
	}
	return out
}

// Complete reports whether the form satisfies the submission precondition:
// every field non-empty and no field carrying an error. It does not run any
// validation itself; errors may lag values until the next pass.
func (f *Form) Complete() bool {
	for _, v := range f.values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return len(f.errors) == 0
}
