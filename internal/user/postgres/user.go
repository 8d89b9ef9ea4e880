package user

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/smartwork/internal"
	userDatamodel "github.com/frahmantamala/smartwork/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]*coreuser.User, error) {
	var rows []userDatamodel.User
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*coreuser.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].ToDomain())
	}
	return users, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*coreuser.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *Repository) Create(ctx context.Context, u *coreuser.User) error {
	if err := r.db.WithContext(ctx).Create(userDatamodel.FromDomain(u)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrUserAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) UpdateTheme(ctx context.Context, username, theme string) error {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("username = ?", username).
		Update("theme", theme)
	if result.Error != nil {
		return fmt.Errorf("update theme: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *Repository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("LOWER(role) = ?", "admin").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// DeleteKeepingAdmin removes username unless it is the last admin. The admin
// rows are read FOR UPDATE inside the transaction on postgres, so concurrent
// deletes of different admins queue behind each other and the later one sees
// the earlier removal. sqlite serializes write transactions on its own.
func (r *Repository) DeleteKeepingAdmin(ctx context.Context, username string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admins := tx.Model(&userDatamodel.User{}).Where("LOWER(role) = ?", "admin").Order("username")
		if tx.Dialector.Name() == "postgres" {
			admins = admins.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var names []string
		if err := admins.Pluck("username", &names).Error; err != nil {
			return fmt.Errorf("lock admins: %w", err)
		}
		if slices.Contains(names, username) && len(names) <= 1 {
			return nil
		}

		result := tx.Where("username = ?", username).Delete(&userDatamodel.User{})
		if result.Error != nil {
			return fmt.Errorf("delete user: %w", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
