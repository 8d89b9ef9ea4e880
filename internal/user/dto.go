package user

import (
	"strings"

	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/core/common/validation"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

type CreateUserDTO struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.Email = strings.TrimSpace(d.Email)
}

func (d CreateUserDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(64)
	v.Field("email", d.Email).Required().Email()
	v.Field("role", d.Role).Custom(func(value interface{}) *internal.AppError {
		if _, ok := coreuser.NormalizeRole(value.(string)); !ok {
			return internal.NewValidationFieldError("role", "role must be Admin or Employee", internal.ErrCodeInvalidRole)
		}
		return nil
	})
	return v.Validate()
}

type UpdateThemeDTO struct {
	Theme string `json:"theme"`
}

func (d UpdateThemeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("theme", d.Theme).Required().OneOf(internal.ErrCodeInvalidTheme, coreuser.ThemeLight, coreuser.ThemeDark)
	return v.Validate()
}
