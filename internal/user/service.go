package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/core/events"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
	"github.com/frahmantamala/smartwork/internal/credential"
)

type Service struct {
	repo                    Repository
	events                  events.Publisher
	logger                  *slog.Logger
	temporaryPasswordLength int
	now                     func() time.Time
}

func NewService(repo Repository, publisher events.Publisher, temporaryPasswordLength int, logger *slog.Logger) *Service {
	if temporaryPasswordLength <= 0 {
		temporaryPasswordLength = credential.DefaultTemporaryPasswordLength
	}
	return &Service{
		repo:                    repo,
		events:                  publisher,
		logger:                  logger,
		temporaryPasswordLength: temporaryPasswordLength,
		now:                     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context) ([]coreuser.Public, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}

	out := make([]coreuser.Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*coreuser.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return u, nil
}

// Create adds a user with a random temporary password that must be changed
// at first login. The password only leaves the service by mail.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*coreuser.Public, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	role, _ := coreuser.NormalizeRole(dto.Role)

	if _, err := s.repo.GetByUsername(ctx, dto.Username); err == nil {
		return nil, internal.ErrUserAlreadyExists
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return nil, internal.NewInternalError("failed to check username", err)
	}

	temporary, err := credential.GenerateTemporaryPassword(s.temporaryPasswordLength)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate temporary password", err)
	}
	hash, err := credential.Hash(temporary)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := s.now()
	u := &coreuser.User{
		Username:            dto.Username,
		DisplayName:         dto.DisplayName,
		Email:               dto.Email,
		Role:                role,
		Theme:               coreuser.ThemeLight,
		PasswordHash:        hash,
		PasswordSetAt:       &now,
		ForcePasswordChange: true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, internal.ErrUserAlreadyExists) {
			return nil, internal.ErrUserAlreadyExists
		}
		s.logger.Error("failed to create user", "username", u.Username, "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "username", u.Username, "role", u.Role)
	if err := s.events.Publish(ctx, events.NewUserCreatedEvent(u.Username, u.Email, temporary)); err != nil {
		s.logger.Error("failed to publish user created event", "username", u.Username, "error", err)
	}

	public := u.Public()
	return &public, nil
}

func (s *Service) Delete(ctx context.Context, actor *coreuser.User, username string) error {
	target, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return internal.ErrUserNotFound
		}
		return internal.NewInternalError("failed to load user", err)
	}

	if actor != nil && target.Username == actor.Username {
		return internal.ErrCannotDeleteYourself
	}

	if target.IsAdmin() {
		admins, err := s.repo.CountAdmins(ctx)
		if err != nil {
			return internal.NewInternalError("failed to count admins", err)
		}
		if admins <= 1 {
			s.logger.Warn("refusing to delete the last admin", "username", target.Username)
			return internal.ErrCannotDeleteLastAdmin
		}
	}

	deleted, err := s.repo.DeleteKeepingAdmin(ctx, target.Username)
	if err != nil {
		s.logger.Error("failed to delete user", "username", target.Username, "error", err)
		return internal.NewInternalError("failed to delete user", err)
	}
	if !deleted {
		// lost a race: either someone else deleted it or it became the last admin
		if _, err := s.repo.GetByUsername(ctx, target.Username); errors.Is(err, internal.ErrUserNotFound) {
			return internal.ErrUserNotFound
		}
		return internal.ErrCannotDeleteLastAdmin
	}

	s.logger.Info("user deleted", "username", target.Username, "by", actorName(actor))
	return nil
}

func (s *Service) UpdateTheme(ctx context.Context, current *coreuser.User, dto UpdateThemeDTO) (*coreuser.Public, error) {
	if current == nil {
		return nil, internal.ErrUnauthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTheme(ctx, current.Username, dto.Theme); err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to update theme", err)
	}

	updated := *current
	updated.Theme = dto.Theme
	public := updated.Public()
	return &public, nil
}

func actorName(u *coreuser.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
