// Package validate holds the client-side form checks run before any request
// leaves the machine.
package validate

import (
	"regexp"
)

const (
	MinPasswordLength = 8
	OTPLength         = 4
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Error is a local validation failure. Message is shown to the user as is.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func fail(field, msg string) error {
	return &Error{Field: field, Message: msg}
}

func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Login checks the login form: both fields present, then email shape.
func Login(email, password string) error {
	if email == "" || password == "" {
		return fail("form", "Please fill in all fields.")
	}
	if !IsEmail(email) {
		return fail("email", "Please enter a valid email address.")
	}
	return nil
}

// Signup checks the signup form in order and returns the first failure:
// all fields present, email shape, password length, confirmation match.
func Signup(email, password, confirm string) error {
	if email == "" || password == "" || confirm == "" {
		return fail("form", "Please fill in all fields.")
	}
	if !IsEmail(email) {
		return fail("email", "Please enter a valid email address.")
	}
	return NewPassword(password, confirm)
}

// NewPassword checks a password and its confirmation.
func NewPassword(password, confirm string) error {
	if password == "" || confirm == "" {
		return fail("form", "Please fill in all fields.")
	}
	if len(password) < MinPasswordLength {
		return fail("password", "Password must be at least 8 characters long.")
	}
	if password != confirm {
		return fail("confirm", "Passwords do not match.")
	}
	return nil
}

// Email checks a lone email field (quick-login link request).
func Email(email string) error {
	if email == "" {
		return fail("email", "Please enter your email address.")
	}
	if !IsEmail(email) {
		return fail("email", "Please enter a valid email address.")
	}
	return nil
}

// IsDigit reports whether s is a single ASCII digit.
func IsDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

// OTP checks that every box holds one digit.
func OTP(digits [OTPLength]string) error {
	for _, d := range digits {
		if !IsDigit(d) {
			return fail("otp", "Please enter the complete 4-digit code.")
		}
	}
	return nil
}
