package domain

import "time"

// RoleUser is the role tag carried by every account created through registration.
const RoleUser = "user"

// User represents a registered account.
type User struct {
	ID        string
	Username  string
	Password  string
	Role      string
	CreatedAt time.Time
}
