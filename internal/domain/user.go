package domain

import "time"

// User is an account known to the backend, linked to the identity provider.
type User struct {
	ID         string
	Name       string
	Email      string
	IdentityID string
	CreatedAt  time.Time
}
