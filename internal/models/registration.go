package models

import (
	"errors"
	"strings"
)

// Registration is one form submission. Records are never modified after capture;
// Timestamp keeps the exact string the form produced because (email, timestamp)
// identifies the record remotely.
type Registration struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        *string  `json:"phone"`
	Organization string   `json:"organization"`
	Role         string   `json:"role"`
	Gender       string   `json:"gender"`
	Origin       string   `json:"origin"`
	Experience   string   `json:"experience"`
	Interests    []string `json:"interests"`
	Timestamp    string   `json:"timestamp"`
}

var (
	ErrNameRequired = errors.New("name is required")
	ErrInvalidEmail = errors.New("a valid email is required")
)

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if !strings.Contains(r.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}
