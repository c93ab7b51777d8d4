package models

import "time"

// Account roles.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// User is an account as listed by the server. It never carries a password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	ManagerEmail string    `json:"managerEmail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser is the admin request for creating an account.
type NewUser struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	ManagerEmail string `json:"managerEmail,omitempty"`
}

// Session is the token pair issued on login or refresh.
type Session struct {
	Email        string `json:"-"`
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}
