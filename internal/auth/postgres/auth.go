package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/smartwork/internal"
	userDatamodel "github.com/frahmantamala/smartwork/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

// Repository gives the auth service access to user credentials.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*coreuser.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return row.ToDomain(), nil
}

// GetByEmail matches case-insensitively and picks the first username on ties.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*coreuser.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Order("username ASC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return row.ToDomain(), nil
}

// SaveCredentials writes the password columns of u and nothing else.
func (r *Repository) SaveCredentials(ctx context.Context, u *coreuser.User) error {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("username = ?", u.Username).
		Updates(map[string]interface{}{
			"password":              u.Password,
			"password_hash":         u.PasswordHash,
			"password_set_at":       u.PasswordSetAt,
			"force_password_change": u.ForcePasswordChange,
		})
	if result.Error != nil {
		return fmt.Errorf("save credentials: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
