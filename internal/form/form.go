// Package form is the single source of truth for form field definitions.
//
// A Field describes one input of a form: its name, its kind, and an ordered
// list of rules. The same declarative description drives server-side
// validation here and is served to the frontend (GET /api/forms/registration)
// so the client-side schema can never silently diverge from the server's.
//
// Rules are a small closed set of tagged variants (Required, EmailFormat,
// MaxLength, EqualsField) consumed by one interpreter in Compile. There is
// deliberately no reflection and no extension point — a classifieds site has
// one registration form, not a form-builder.
package form

// Kind tells the frontend which input widget to render. The server only
// treats KindFile specially (file parts are validated by the upload package,
// not by string rules).
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindPassword Kind = "password"
	KindFile     Kind = "file"
)

// Field is one immutable form field description. Build these at package init
// and never mutate them — compiled validators capture them by value.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
	Rules []Rule `json:"rules"`
}

// Rule is a tagged validation rule. Exactly one semantic per Op; Message is
// the user-facing string shown when the rule fails (a default applies when
// empty, see messages in validate.go).
type Rule struct {
	Op      Op     `json:"op"`
	Max     int    `json:"max,omitempty"`   // OpMaxLength only
	Other   string `json:"other,omitempty"` // OpEqualsField only: referenced field name
	Message string `json:"message,omitempty"`
}

// Op enumerates the rule variants the interpreter understands.
type Op string

const (
	OpRequired    Op = "required"
	OpEmailFormat Op = "email"
	OpMaxLength   Op = "maxLength"
	OpEqualsField Op = "equalsField"
)

// Required builds a required-field rule.
func Required(message string) Rule {
	return Rule{Op: OpRequired, Message: message}
}

// EmailFormat builds an email-shape rule.
func EmailFormat(message string) Rule {
	return Rule{Op: OpEmailFormat, Message: message}
}

// MaxLength builds a length ceiling rule.
func MaxLength(n int, message string) Rule {
	return Rule{Op: OpMaxLength, Max: n, Message: message}
}

// EqualsField builds a cross-field equality rule (password confirmation).
func EqualsField(other, message string) Rule {
	return Rule{Op: OpEqualsField, Other: other, Message: message}
}

// RegistrationFields is the registry for the account registration form.
// PUT /api/users/{id} reuses the same set minus the password pair.
var RegistrationFields = []Field{
	{
		Name:  "fullName",
		Label: "Full name",
		Kind:  KindText,
		Rules: []Rule{
			Required("full name is required"),
			MaxLength(100, "full name must be 100 characters or less"),
		},
	},
	{
		Name:  "nickname",
		Label: "Nickname",
		Kind:  KindText,
		Rules: []Rule{
			Required("nickname is required"),
			MaxLength(40, "nickname must be 40 characters or less"),
		},
	},
	{
		Name:  "email",
		Label: "Email",
		Kind:  KindEmail,
		Rules: []Rule{
			Required("email is required"),
			EmailFormat("invalid email"),
			MaxLength(254, "email must be 254 characters or less"),
		},
	},
	{
		Name:  "password",
		Label: "Password",
		Kind:  KindPassword,
		Rules: []Rule{
			Required("password is required"),
			MaxLength(72, "password must be 72 characters or less"),
		},
	},
	{
		Name:  "password2",
		Label: "Confirm password",
		Kind:  KindPassword,
		Rules: []Rule{
			Required("password confirmation is required"),
			EqualsField("password", "passwords do not match"),
		},
	},
	{
		Name:  "photo",
		Label: "Profile photo",
		Kind:  KindFile,
		// File constraints (size, content type) live in the upload package;
		// string rules don't apply to binary parts.
	},
}

// ProfileFields is RegistrationFields without the credential pair — the
// field set accepted by profile updates.
var ProfileFields = []Field{
	RegistrationFields[0], // fullName
	RegistrationFields[1], // nickname
	RegistrationFields[5], // photo
}
