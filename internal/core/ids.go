package core

import "github.com/google/uuid"

// NewID returns a random identifier for trips, members and expenses.
func NewID() string {
	return uuid.NewString()
}
