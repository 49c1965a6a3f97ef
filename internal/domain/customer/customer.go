package customer

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("customer: not found")
	ErrEmailTaken   = errors.New("customer: email already in use")
	ErrInvalidName  = errors.New("customer: name is required")
	ErrInvalidEmail = errors.New("customer: email is invalid")
)

type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams is the input accepted by Repository.Create. The repository assigns the identity.
type CreateParams struct {
	Name  string
	Email string
}

// Normalize trims whitespace and lower-cases the email so uniqueness is case-insensitive.
func (p CreateParams) Normalize() CreateParams {
	return CreateParams{
		Name:  strings.TrimSpace(p.Name),
		Email: strings.ToLower(strings.TrimSpace(p.Email)),
	}
}

func (p CreateParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(p.Email))
	if err != nil || addr.Address != strings.TrimSpace(p.Email) {
		return ErrInvalidEmail
	}
	return nil
}

func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
