package auth

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"
)

const (
	DefaultBcryptCost = 12 // ~100ms per verify on reference hardware

	MinPasswordLen = 8
	MinNameLen     = 2

	// Character classes required in a password: at least minCharClasses of
	// {lower, upper, digit, symbol}. There is deliberately no upper length
	// bound and no dictionary check.
	minCharClasses = 3

	TempPasswordLen = 10
)

// tempPasswordAlphabet excludes visually ambiguous glyphs (0/O, 1/l/I).
const tempPasswordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%&*"

// PasswordValidationError holds validation error details (internal use only)
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return "invalid password: " + strings.Join(e.Errors, "; ")
}

// ValidatePassword enforces the password strength rule: minimum length and
// at least three of the four character classes.
func ValidatePassword(password string) error {
	errs := make([]string, 0)

	if len(password) < MinPasswordLen {
		errs = append(errs, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}

	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSymbol := false

	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if has {
			classes++
		}
	}

	if classes < minCharClasses {
		errs = append(errs, fmt.Sprintf("must contain at least %d of: lowercase, uppercase, digit, symbol", minCharClasses))
	}

	if len(errs) > 0 {
		return &PasswordValidationError{Errors: errs}
	}

	return nil
}

// ValidateEmail checks the local@domain.tld shape without touching storage:
// exactly one "@", at least one "." after it, no whitespace.
func ValidateEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}

	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}

	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	// The dot must separate non-empty labels.
	return dot > 0 && dot < len(domain)-1
}

// ValidateName requires at least MinNameLen characters after trimming.
func ValidateName(name string) bool {
	return len([]rune(strings.TrimSpace(name))) >= MinNameLen
}

// GenerateTempPassword draws TempPasswordLen characters from the unambiguous
// alphabet using crypto/rand. The result is a live credential, so a
// general-purpose PRNG is not acceptable here.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, TempPasswordLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	out := make([]byte, TempPasswordLen)
	for i, b := range buf {
		out[i] = tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)]
	}

	return string(out), nil
}
