package models

import "time"

// UserRole represents the mutually exclusive roles known to the complaint engine.
type UserRole string

const (
	RoleResident UserRole = "resident"
	RoleStaff    UserRole = "staff"
	RoleAdmin    UserRole = "admin"
)

// Valid reports whether the role is recognised.
func (r UserRole) Valid() bool {
	return r == RoleResident || r == RoleStaff || r == RoleAdmin
}

// User is a directory entry used to resolve contact addresses and validate assignees.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Actor is the identity performing a request.
type Actor struct {
	ID   string
	Role UserRole
}

// Contact is the delivery address of a user. An empty Address means not contactable.
type Contact struct {
	UserID   string `json:"userId"`
	Address  string `json:"address"`
	FullName string `json:"fullName"`
}
