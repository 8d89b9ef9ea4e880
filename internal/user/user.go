package user

import (
	"context"

	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]coreuser.Public, error)
	Create(ctx context.Context, dto CreateUserDTO) (*coreuser.Public, error)
	Delete(ctx context.Context, actor *coreuser.User, username string) error
	UpdateTheme(ctx context.Context, current *coreuser.User, dto UpdateThemeDTO) (*coreuser.Public, error)
	GetByUsername(ctx context.Context, username string) (*coreuser.User, error)
}

// Repository returns internal.ErrUserNotFound for missing usernames and
// internal.ErrUserAlreadyExists when Create hits an existing one.
type Repository interface {
	List(ctx context.Context) ([]*coreuser.User, error)
	GetByUsername(ctx context.Context, username string) (*coreuser.User, error)
	Create(ctx context.Context, u *coreuser.User) error
	UpdateTheme(ctx context.Context, username, theme string) error
	CountAdmins(ctx context.Context) (int64, error)
	// DeleteKeepingAdmin removes username unless it is the only admin left,
	// reporting whether a row was deleted.
	DeleteKeepingAdmin(ctx context.Context, username string) (bool, error)
}
