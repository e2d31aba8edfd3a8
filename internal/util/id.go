package util

import "github.com/google/uuid"

// NewID returns a random UUID string for new rows.
func NewID() string {
	return uuid.NewString()
}
