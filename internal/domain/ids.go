package domain

import "github.com/google/uuid"

// NewExecutionID mints a fresh opaque execution identifier.
func NewExecutionID() string {
	return uuid.New().String()
}
