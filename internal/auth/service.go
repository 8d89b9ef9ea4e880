package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/smartwork/internal"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
	"github.com/frahmantamala/smartwork/internal/credential"
	"github.com/frahmantamala/smartwork/internal/session"
)

type Service struct {
	repo     RepositoryAPI
	sessions session.Registry
	mailer   PasswordMailer
	logger   *slog.Logger
	config   Config
	now      func() time.Time
}

func NewService(repo RepositoryAPI, sessions session.Registry, mailer PasswordMailer, config Config, logger *slog.Logger) *Service {
	if config.PasswordMaxAgeMonths <= 0 {
		config.PasswordMaxAgeMonths = 4
	}
	if config.TemporaryPasswordLength <= 0 {
		config.TemporaryPasswordLength = credential.DefaultTemporaryPasswordLength
	}
	return &Service{
		repo:     repo,
		sessions: sessions,
		mailer:   mailer,
		logger:   logger,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login verifies the credentials and opens a session. A legacy plaintext
// password is upgraded to a hash on its first successful use and the user is
// then forced to pick a new one; passwords older than the configured maximum
// age are also forced to rotate.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(dto.Username)

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			s.logger.Info("login rejected: unknown user", "username", username)
			return nil, internal.ErrInvalidCredentials
		}
		s.logger.Error("login: failed to load user", "username", username, "error", err)
		return nil, internal.NewInternalError("failed to load user", err)
	}

	now := s.now()
	changed := false

	switch {
	case u.PasswordHash != "":
		if !credential.Verify(u.PasswordHash, dto.Password) {
			s.logger.Info("login rejected: wrong password", "username", username)
			return nil, internal.ErrInvalidCredentials
		}
	case u.Password != "":
		if !legacyMatch(u.Password, dto.Password) {
			s.logger.Info("login rejected: wrong legacy password", "username", username)
			return nil, internal.ErrInvalidCredentials
		}
		if err := setPassword(u, dto.Password, now); err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		u.ForcePasswordChange = true
		changed = true
		s.logger.Info("legacy password migrated to hash", "username", username)
	default:
		s.logger.Warn("login rejected: user has no credential", "username", username)
		return nil, internal.ErrInvalidCredentials
	}

	if !u.ForcePasswordChange && passwordExpired(u.PasswordSetAt, now, s.config.PasswordMaxAgeMonths) {
		u.ForcePasswordChange = true
		changed = true
		s.logger.Info("password expired, forcing rotation", "username", username)
	}

	if changed {
		if err := s.repo.SaveCredentials(ctx, u); err != nil {
			s.logger.Error("login: failed to save credentials", "username", username, "error", err)
			return nil, internal.NewInternalError("failed to save credentials", err)
		}
	}

	token, err := s.sessions.Create(u.Username)
	if err != nil {
		s.logger.Error("login: failed to create session", "username", username, "error", err)
		return nil, internal.NewInternalError("failed to create session", err)
	}

	s.logger.Info("user logged in", "username", u.Username, "force_password_change", u.ForcePasswordChange)
	return &LoginResult{
		Token:               token,
		Username:            u.Username,
		Role:                u.Role,
		Email:               u.Email,
		Theme:               u.Theme,
		ForcePasswordChange: u.ForcePasswordChange,
	}, nil
}

// ChangePassword sets a new password for current. The old password is only
// optional while a change is being forced.
func (s *Service) ChangePassword(ctx context.Context, current *coreuser.User, dto ChangePasswordDTO) error {
	if current == nil {
		return internal.ErrUnauthenticated
	}
	if strings.TrimSpace(dto.NewPassword) == "" {
		return internal.ErrNewPasswordRequired
	}

	u, err := s.repo.GetByUsername(ctx, current.Username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return internal.ErrUnauthenticated
		}
		return internal.NewInternalError("failed to load user", err)
	}

	if !u.ForcePasswordChange {
		if strings.TrimSpace(dto.OldPassword) == "" {
			return internal.ErrOldPasswordRequired
		}
		if !currentPasswordMatches(u, dto.OldPassword) {
			s.logger.Info("password change rejected: old password mismatch", "username", u.Username)
			return internal.ErrOldPasswordMismatch
		}
	}

	if err := setPassword(u, dto.NewPassword, s.now()); err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	u.ForcePasswordChange = false

	if err := s.repo.SaveCredentials(ctx, u); err != nil {
		s.logger.Error("failed to save new password", "username", u.Username, "error", err)
		return internal.NewInternalError("failed to save credentials", err)
	}

	s.logger.Info("password changed", "username", u.Username)
	return nil
}

// ForgotPassword resets the password of the user owning email and mails a
// temporary one. The reset stays persisted even when the mail fails.
func (s *Service) ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	email := strings.TrimSpace(dto.Email)

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			s.logger.Info("password reset for unknown email")
			return internal.ErrUserNotFound
		}
		return internal.NewInternalError("failed to load user", err)
	}

	temporary, err := credential.GenerateTemporaryPassword(s.config.TemporaryPasswordLength)
	if err != nil {
		return internal.NewInternalError("failed to generate temporary password", err)
	}
	if err := setPassword(u, temporary, s.now()); err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	u.ForcePasswordChange = true

	if err := s.repo.SaveCredentials(ctx, u); err != nil {
		s.logger.Error("failed to save temporary password", "username", u.Username, "error", err)
		return internal.NewInternalError("failed to save credentials", err)
	}

	if err := s.mailer.SendTemporaryPassword(ctx, u.Email, u.Username, temporary); err != nil {
		s.logger.Error("temporary password saved but not delivered", "username", u.Username, "error", err)
		return internal.ErrEmailDelivery.WithCause(err)
	}

	s.logger.Info("temporary password issued", "username", u.Username)
	return nil
}

// Authenticate resolves a bearer token to the current user record.
func (s *Service) Authenticate(ctx context.Context, token string) (*coreuser.User, error) {
	if token == "" {
		return nil, internal.ErrUnauthenticated
	}

	username, ok := s.sessions.Lookup(token)
	if !ok {
		return nil, internal.ErrUnauthenticated
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			s.logger.Warn("session refers to a deleted user", "username", username)
			return nil, internal.ErrUnauthenticated
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return u, nil
}

func setPassword(u *coreuser.User, password string, now time.Time) error {
	hash, err := credential.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Password = ""
	u.PasswordSetAt = &now
	return nil
}

func currentPasswordMatches(u *coreuser.User, password string) bool {
	if u.PasswordHash != "" {
		return credential.Verify(u.PasswordHash, password)
	}
	return u.Password != "" && legacyMatch(u.Password, password)
}

func legacyMatch(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
