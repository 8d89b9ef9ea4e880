package request

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

// WithClock replaces the decision timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create persists a pending request for employee and announces it to the
// admin mailbox. The mail is not awaited.
func (s *Service) Create(ctx context.Context, employee *coreuser.User, dto CreateRequestDTO) (*Request, error) {
	if employee == nil {
		return nil, internal.ErrUnauthenticated
	}
	day, verr := dto.Day()
	if verr != nil {
		return nil, verr
	}

	r := &Request{
		EmployeeUsername: employee.Username,
		EmployeeName:     employee.Name(),
		Date:             day,
		Status:           StatusPending,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error("failed to create request", "username", employee.Username, "error", err)
		return nil, internal.NewInternalError("failed to create request", err)
	}

	s.logger.Info("request created",
		"request_id", r.ID,
		"username", r.EmployeeUsername,
		"date", r.Day())

	event := events.NewRequestCreatedEvent(r.ID, events.KindSingle, r.EmployeeUsername, r.EmployeeName, r.Day())
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish request created event", "request_id", r.ID, "error", err)
	}

	return r, nil
}

// SetDecision approves or rejects a pending request. Decisions are final:
// a request that is no longer pending yields ErrRequestAlreadyDecided.
func (s *Service) SetDecision(ctx context.Context, id int64, approved bool, decidedBy string) (*Request, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsPending() {
		s.logger.Warn("request already decided", "request_id", id, "status", r.Status)
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

	s.logger.Info("request decided",
		"request_id", id,
		"status", status,
		"decided_by", decidedBy)

	s.notifyDecision(ctx, r, approved, decidedBy)
	return r, nil
}

func (s *Service) notifyDecision(ctx context.Context, r *Request, approved bool, decidedBy string) {
	employee, err := s.users.GetByUsername(ctx, r.EmployeeUsername)
	if err != nil {
		s.logger.Warn("cannot resolve employee for decision mail",
			"request_id", r.ID,
			"username", r.EmployeeUsername,
			"error", err)
		return
	}

	event := events.NewRequestDecidedEvent(r.ID, events.KindSingle, r.EmployeeUsername, employee.Email, r.Day(), approved, decidedBy)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish decision event", "request_id", r.ID, "error", err)
	}
}

// Delete removes a request on behalf of its employee or an admin.
func (s *Service) Delete(ctx context.Context, actor *coreuser.User, id int64) error {
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !r.OwnedBy(actor) && !actor.IsAdmin() {
		s.logger.Warn("request delete denied", "request_id", id, "owner", r.EmployeeUsername)
		return internal.ErrNotRequestOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, internal.ErrRequestNotFound) {
			return internal.ErrRequestNotFound
		}
		s.logger.Error("failed to delete request", "request_id", id, "error", err)
		return internal.NewInternalError("failed to delete request", err)
	}

	s.logger.Info("request deleted", "request_id", id, "by", actor.Username)
	return nil
}

func (s *Service) ListAll(ctx context.Context) ([]*Request, error) {
	requests, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list requests", "error", err)
		return nil, internal.NewInternalError("failed to list requests", err)
	}
	return requests, nil
}

func (s *Service) ListMine(ctx context.Context, username string) ([]*Request, error) {
	requests, err := s.repo.ListByEmployee(ctx, username)
	if err != nil {
		s.logger.Error("failed to list requests", "username", username, "error", err)
		return nil, internal.NewInternalError("failed to list requests", err)
	}
	return requests, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Request, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrRequestNotFound) {
			return nil, internal.ErrRequestNotFound
		}
		s.logger.Error("failed to load request", "request_id", id, "error", err)
		return nil, internal.NewInternalError("failed to load request", err)
	}
	return r, nil
}
