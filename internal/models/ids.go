package models

import "github.com/google/uuid"

// assignID gives a new row a random UUID unless the caller already picked one.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// NewID returns an identifier in the same format the models assign on create.
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s looks like an identifier produced by NewID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
