package domain

import "strings"

// PendingRegistration is the signup form held until the e-mail address is verified.
type PendingRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Normalized trims the form and lower-cases the e-mail address.
func (p PendingRegistration) Normalized() PendingRegistration {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = NormalizeEmail(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Role = strings.ToLower(strings.TrimSpace(p.Role))
	if p.Role == "" {
		p.Role = RoleReader
	}
	return p
}

// NormalizeEmail is the canonical identifier form used by client and server.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
