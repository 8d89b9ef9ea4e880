package user

import (
	"strings"
	"time"
)

const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

type User struct {
	Username            string
	DisplayName         string
	Email               string
	Role                string
	Theme               string
	Password            string
	PasswordHash        string
	PasswordSetAt       *time.Time
	ForcePasswordChange bool
}

// NormalizeRole maps role case-insensitively onto Admin or Employee.
// Empty input becomes Employee; anything else reports ok=false.
func NormalizeRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "":
		return RoleEmployee, true
	case "admin":
		return RoleAdmin, true
	case "employee":
		return RoleEmployee, true
	default:
		return "", false
	}
}

func IsAdminRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}

func (u *User) IsAdmin() bool {
	return u != nil && IsAdminRole(u.Role)
}

func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

// Name is the label shown on requests, falling back to the username.
func (u *User) Name() string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Username
}

type Public struct {
	Username            string `json:"username"`
	DisplayName         string `json:"displayName,omitempty"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	Theme               string `json:"theme"`
	ForcePasswordChange bool   `json:"forcePasswordChange"`
}

func (u *User) Public() Public {
	return Public{
		Username:            u.Username,
		DisplayName:         u.DisplayName,
		Email:               u.Email,
		Role:                u.Role,
		Theme:               u.Theme,
		ForcePasswordChange: u.ForcePasswordChange,
	}
}
