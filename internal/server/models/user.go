package models

import "time"

// Role is the authorization role of an account.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus is the administrative approval state of an account.
type AccountStatus string

const (
	AccountPending  AccountStatus = "pending"
	AccountApproved AccountStatus = "approved"
	AccountRejected AccountStatus = "rejected"
)

// Valid reports whether s is one of the known account states.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountPending, AccountApproved, AccountRejected:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         Role
	Status       AccountStatus
	// ManagerEmail names the reviewer for the user's uploads. Empty for
	// managers and admins.
	ManagerEmail string
	CreatedAt    time.Time
}
