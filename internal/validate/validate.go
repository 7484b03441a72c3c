// Package validate holds the client-side checks that block a submission before it reaches the network.
package validate

import (
	"net/mail"
	"strings"

	"github.com/tayyabfareed009/newswatch/internal/domain"
)

// MinPasswordLength is the shortest password the signup and reset forms accept.
const MinPasswordLength = 6

// Email checks that value is a bare e-mail address.
func Email(value string) error {
	email := domain.NormalizeEmail(value)
	if email == "" {
		return domain.Validation("Email is required.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || strings.ToLower(addr.Address) != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return domain.Validation("Please enter a valid email address.")
	}
	return nil
}

// Password checks the minimum length.
func Password(value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Validation("Password is required.")
	}
	if len([]rune(value)) < MinPasswordLength {
		return domain.Validation("Password must be at least 6 characters.")
	}
	return nil
}

// PasswordsMatch checks the confirmation field.
func PasswordsMatch(password, confirm string) error {
	if password != confirm {
		return domain.Validation("Passwords do not match.")
	}
	return nil
}

// Name checks the display name.
func Name(value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Validation("Name is required.")
	}
	return nil
}

// Phone accepts an empty value or 7 to 15 digits with optional +, - and spaces.
func Phone(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	digits := 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0, r == '-', r == ' ':
		default:
			return domain.Validation("Please enter a valid phone number.")
		}
	}
	if digits < 7 || digits > 15 {
		return domain.Validation("Please enter a valid phone number.")
	}
	return nil
}

// Role accepts reader or reporter; empty means reader.
func Role(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", domain.RoleReader, domain.RoleReporter:
		return nil
	}
	return domain.Validation("Role must be reader or reporter.")
}

// Code checks a complete one-time code.
func Code(value string) error {
	if len(value) != domain.OTPCodeLength {
		return domain.Validation("Please enter the 6-digit code.")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return domain.Validation("Please enter the 6-digit code.")
		}
	}
	return nil
}

// Registration validates the whole signup form.
func Registration(p domain.PendingRegistration) error {
	checks := []error{Name(p.Name), Email(p.Email), Password(p.Password), Phone(p.Phone), Role(p.Role)}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
