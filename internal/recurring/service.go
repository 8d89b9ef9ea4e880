package recurring

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/core/events"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

type Service struct {
	repo   Repository
	users  UserLookup
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, users UserLookup, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		events: publisher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, employee *coreuser.User, dto CreateRecurringDTO) (*RecurringRequest, error) {
	if employee == nil {
		return nil, internal.ErrUnauthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r := &RecurringRequest{
		EmployeeUsername: employee.Username,
		EmployeeName:     employee.Name(),
		DayOfWeek:        *dto.DayOfWeek,
		DayName:          dto.Name(),
		Status:           StatusPending,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error("failed to create recurring request", "username", employee.Username, "error", err)
		return nil, internal.NewInternalError("failed to create recurring request", err)
	}

	s.logger.Info("recurring request created",
		"request_id", r.ID,
		"username", r.EmployeeUsername,
		"day_of_week", r.DayOfWeek)

	event := events.NewRequestCreatedEvent(r.ID, events.KindRecurring, r.EmployeeUsername, r.EmployeeName, r.Label())
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish request created event", "request_id", r.ID, "error", err)
	}

	return r, nil
}

func (s *Service) SetDecision(ctx context.Context, id int64, approved bool, decidedBy string) (*RecurringRequest, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsPending() {
		return nil, internal.ErrRequestAlreadyDecided
	}

	status := StatusRejected
	if approved {
		status = StatusApproved
	}
	at := s.now()

	updated, err := s.repo.Decide(ctx, id, status, decidedBy, at)
	if err != nil {
		s.logger.Error("failed to record decision", "request_id", id, "error", err)
		return nil, internal.NewInternalError("failed to record decision", err)
	}
	if !updated {
		if _, err := s.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, internal.ErrRequestAlreadyDecided
	}

	r.Status = status
	r.DecisionBy = &decidedBy
	r.DecisionAt = &at

	s.logger.Info("recurring request decided",
		"request_id", id,
		"status", status,
		"decided_by", decidedBy)

	employee, err := s.users.GetByUsername(ctx, r.EmployeeUsername)
	if err != nil {
		s.logger.Warn("cannot resolve employee for decision mail", "request_id", id, "error", err)
		return r, nil
	}
	event := events.NewRequestDecidedEvent(r.ID, events.KindRecurring, r.EmployeeUsername, employee.Email, r.Label(), approved, decidedBy)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish decision event", "request_id", id, "error", err)
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, actor *coreuser.User, id int64) error {
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !r.OwnedBy(actor) && !actor.IsAdmin() {
		return internal.ErrNotRequestOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, internal.ErrRequestNotFound) {
			return internal.ErrRequestNotFound
		}
		s.logger.Error("failed to delete recurring request", "request_id", id, "error", err)
		return internal.NewInternalError("failed to delete recurring request", err)
	}

	s.logger.Info("recurring request deleted", "request_id", id, "by", actor.Username)
	return nil
}

func (s *Service) ListAll(ctx context.Context) ([]*RecurringRequest, error) {
	out, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list recurring requests", err)
	}
	return out, nil
}

func (s *Service) ListMine(ctx context.Context, username string) ([]*RecurringRequest, error) {
	out, err := s.repo.ListByEmployee(ctx, username)
	if err != nil {
		return nil, internal.NewInternalError("failed to list recurring requests", err)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (*RecurringRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrRequestNotFound) {
			return nil, internal.ErrRequestNotFound
		}
		return nil, internal.NewInternalError("failed to load recurring request", err)
	}
	return r, nil
}
