package domain

import "time"

// Role is the access level of a portal account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleHR    Role = "hr"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleHR:
		return true
	}
	return false
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusBlocked
}

// User is a portal account. Every user belongs to one department.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Lastname     string
	Firstname    string
	Middlename   string
	Role         Role
	Status       UserStatus
	DepartmentID int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Privileged reports whether the role may see unpublished news.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleHR
}

// Active reports whether the user may sign in.
func (u *User) Active() bool {
	return u.Status == UserStatusActive
}
