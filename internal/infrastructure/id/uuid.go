package id

import "github.com/google/uuid"

// UUIDGenerator issues random (v4) UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
