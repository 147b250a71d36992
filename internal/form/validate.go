package form

import (
	"regexp"
	"strings"
)

// emailPattern is the usual pragmatic email shape check: something@something
// with a dot in the domain, no whitespace. Full RFC 5322 parsing buys nothing
// here — the registration email gets verified by actually using it.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// defaultMessages are used when a rule carries no Message of its own.
var defaultMessages = map[Op]string{
	OpRequired:    "this field is required",
	OpEmailFormat: "invalid email",
	OpMaxLength:   "value is too long",
	OpEqualsField: "fields do not match",
}

// Errors maps field name → user-facing message. A submission is acceptable
// iff the map is empty.
type Errors map[string]string

// Validator is a compiled, reusable form validator. It holds only immutable
// data, so one Validator is safely shared by every request.
type Validator struct {
	fields []Field
}

// Compile turns a field registry into an executable validator.
//
// The interpreter walks each field's rules in declaration order and records
// the FIRST failing rule's message — later rules for that field are not
// evaluated, so a blank email reports "email is required", not both
// "required" and "invalid email".
func Compile(fields []Field) *Validator {
	return &Validator{fields: fields}
}

// Validate runs every field's rules against the submitted values.
// Fields of KindFile are skipped — binary parts aren't string-validated.
// Absent keys are treated as empty strings.
func (v *Validator) Validate(values map[string]string) Errors {
	errs := make(Errors)

	for _, f := range v.fields {
		if f.Kind == KindFile {
			continue
		}
		value := values[f.Name]

		for _, r := range f.Rules {
			if msg, failed := apply(r, value, values); failed {
				errs[f.Name] = msg
				break // first failing rule wins
			}
		}
	}

	return errs
}

// apply evaluates one rule. Returns the message to report and whether the
// rule failed.
func apply(r Rule, value string, values map[string]string) (string, bool) {
	failed := false

	switch r.Op {
	case OpRequired:
		failed = strings.TrimSpace(value) == ""
	case OpEmailFormat:
		// Empty values are Required's business; email-shape only complains
		// about non-empty garbage.
		failed = value != "" && !emailPattern.MatchString(value)
	case OpMaxLength:
		failed = len(value) > r.Max
	case OpEqualsField:
		// A missing referenced field counts as a mismatch, not a crash:
		// values[r.Other] is "" for absent keys and "" != value fails too
		// when value is set. When both are empty, Required on the
		// confirmation field catches it first.
		other, ok := values[r.Other]
		failed = !ok || value != other
	}

	if !failed {
		return "", false
	}
	if r.Message != "" {
		return r.Message, true
	}
	return defaultMessages[r.Op], true
}
