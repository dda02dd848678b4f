package models

import "time"

// Role defines the access level of a user account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleClient   Role = "client"
)

// IsValidRole reports whether s is one of the known roles.
func IsValidRole(s Role) bool {
	switch s {
	case RoleAdmin, RoleManager, RoleEmployee, RoleClient:
		return true
	}
	return false
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Superuser    bool   `json:"is_superuser"`
	Department   string `json:"department,omitempty"`
	Company      string `json:"company,omitempty"`

	// refresh token storage
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`

	// telegram delivery settings
	TelegramChatID int64 `json:"-"`
	NotifyTelegram bool  `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Actor is the authenticated caller as seen by the service layer.
type Actor struct {
	ID        int64
	Role      Role
	Superuser bool
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
