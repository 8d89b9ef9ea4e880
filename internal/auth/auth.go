package auth

import (
	"context"
	"time"

	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

// ServiceAPI is consumed by the HTTP handlers.
type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	ChangePassword(ctx context.Context, current *coreuser.User, dto ChangePasswordDTO) error
	ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error
	Authenticate(ctx context.Context, token string) (*coreuser.User, error)
}

// RepositoryAPI reads users and writes their credential columns only.
// Lookups return internal.ErrUserNotFound when nothing matches.
type RepositoryAPI interface {
	GetByUsername(ctx context.Context, username string) (*coreuser.User, error)
	GetByEmail(ctx context.Context, email string) (*coreuser.User, error)
	SaveCredentials(ctx context.Context, u *coreuser.User) error
}

// PasswordMailer delivers a temporary password and reports whether it went out.
type PasswordMailer interface {
	SendTemporaryPassword(ctx context.Context, to, username, temporaryPassword string) error
}

type LoginResult struct {
	Token               string `json:"token"`
	Username            string `json:"username"`
	Role                string `json:"role"`
	Email               string `json:"email"`
	Theme               string `json:"theme"`
	ForcePasswordChange bool   `json:"forcePasswordChange"`
}

type Config struct {
	PasswordMaxAgeMonths    int
	TemporaryPasswordLength int
}

// passwordExpired reports whether a password set at setAt must be rotated at now.
func passwordExpired(setAt *time.Time, now time.Time, maxAgeMonths int) bool {
	if setAt == nil || setAt.IsZero() {
		return true
	}
	return !setAt.After(now.AddDate(0, -maxAgeMonths, 0))
}
