package user

import (
	"time"

	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

type User struct {
	Username            string     `gorm:"column:username;primaryKey"`
	DisplayName         string     `gorm:"column:display_name"`
	Email               string     `gorm:"column:email;not null"`
	Role                string     `gorm:"column:role;not null"`
	Theme               string     `gorm:"column:theme;not null"`
	Password            string     `gorm:"column:password"`
	PasswordHash        string     `gorm:"column:password_hash"`
	PasswordSetAt       *time.Time `gorm:"column:password_set_at"`
	ForcePasswordChange bool       `gorm:"column:force_password_change;not null"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) ToDomain() *coreuser.User {
	return &coreuser.User{
		Username:            u.Username,
		DisplayName:         u.DisplayName,
		Email:               u.Email,
		Role:                u.Role,
		Theme:               u.Theme,
		Password:            u.Password,
		PasswordHash:        u.PasswordHash,
		PasswordSetAt:       u.PasswordSetAt,
		ForcePasswordChange: u.ForcePasswordChange,
	}
}

func FromDomain(u *coreuser.User) *User {
	return &User{
		Username:            u.Username,
		DisplayName:         u.DisplayName,
		Email:               u.Email,
		Role:                u.Role,
		Theme:               u.Theme,
		Password:            u.Password,
		PasswordHash:        u.PasswordHash,
		PasswordSetAt:       u.PasswordSetAt,
		ForcePasswordChange: u.ForcePasswordChange,
	}
}
