// Package password holds the strength policy shared by registration,
// password change and password reset confirmation.
package password

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/nkiryanov/eshop/internal/apperrors"
)

const MinLength = 8

type Rule string

const (
	RuleNoWhitespace Rule = "no_whitespace"
	RuleUppercase    Rule = "uppercase"
	RuleLowercase    Rule = "lowercase"
	RuleDigit        Rule = "digit"
	RuleMinLength    Rule = "min_length"
)

var messages = map[Rule]string{
	RuleNoWhitespace: "Password must not contain whitespace",
	RuleUppercase:    "Password must contain at least one uppercase letter",
	RuleLowercase:    "Password must contain at least one lowercase letter",
	RuleDigit:        "Password must contain at least one digit",
	RuleMinLength:    fmt.Sprintf("Password must be at least %d characters long", MinLength),
}

// WeakPasswordError names the first rule the password failed
type WeakPasswordError struct {
	Rule Rule
}

func (e *WeakPasswordError) Error() string {
	return messages[e.Rule]
}

func (e *WeakPasswordError) Unwrap() error {
	return apperrors.ErrWeakPassword
}

// Validate checks the password against the policy
// Rules are checked in fixed order, so the reported rule is deterministic
func Validate(password string) error {
	var hasUpper, hasLower, hasDigit bool

	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return &WeakPasswordError{Rule: RuleNoWhitespace}
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return &WeakPasswordError{Rule: RuleUppercase}
	case !hasLower:
		return &WeakPasswordError{Rule: RuleLowercase}
	case !hasDigit:
		return &WeakPasswordError{Rule: RuleDigit}
	case utf8.RuneCountInString(password) < MinLength:
		return &WeakPasswordError{Rule: RuleMinLength}
	default:
		return nil
	}
}
