package models

import "time"

type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"

	// RoleFlagged marks an identity caught by the honeypot. It is assigned
	// only by the incident responder and never cleared by this service.
	RoleFlagged Role = "flagged"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	CredentialHash string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsFlagged() bool {
	return u.Role == RoleFlagged
}
