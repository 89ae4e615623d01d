package domain

import "time"

// User is an account issued by the external identity provider.
type User struct {
	ID        string
	Email     *string
	CreatedAt time.Time
}
