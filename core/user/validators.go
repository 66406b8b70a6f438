package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/productfruits/academy/core"
)

// password policy
var (
	pwdMinLen     = 8
	pwdMinLenErr  = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)
	pwdNoSpaceErr = "password must not contain whitespace"
	pwdAllNumErr  = "password cannot be entirely numeric"
	pwdMaxSim     = .7
	pwdTooSimErr  = "password cannot be similar to user attributes"
)

// validatePassword applies the password policy; attrs are user attributes
// (email, username, names) the password may not resemble.
func validatePassword(pwd string, attrs ...string) error {
	fieldErr := func(text string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: text})
	}

	if len(pwd) < pwdMinLen {
		return fieldErr(pwdMinLenErr)
	}
	if strings.ContainsAny(pwd, " \t\n") {
		return fieldErr(pwdNoSpaceErr)
	}

	allNum := true
	for _, r := range pwd {
		if !unicode.IsDigit(r) {
			allNum = false
			break
		}
	}
	if allNum {
		return fieldErr(pwdAllNumErr)
	}

	lowerPwd := splitChars(strings.ToLower(pwd))
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		for _, part := range strings.FieldsFunc(strings.ToLower(attr), func(r rune) bool { return r == '@' || r == '.' || r == ' ' }) {
			matcher := difflib.NewMatcher(splitChars(part), lowerPwd)
			if matcher.QuickRatio() > pwdMaxSim {
				return fieldErr(pwdTooSimErr)
			}
		}
	}
	return nil
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
