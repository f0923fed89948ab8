package entity

import (
	"time"
)

// Role is the closed set of user roles accepted by the users.role check constraint.
type Role string

const (
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleLibrarian:
		return true
	}
	return false
}

// UserStatus is the closed set of account standings. Only active users may borrow.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserInactive, UserSuspended:
		return true
	}
	return false
}

// User is reference data the lending workflows validate against.
// UpdatedAt is maintained by a database trigger and advances on any mutation.
type User struct {
	ID        int64
	Username  string
	Email     string
	FullName  string
	Phone     string
	Role      Role
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanBorrow reports whether the user's standing permits new loans.
func (u *User) CanBorrow() bool {
	return u.Status == UserActive
}
