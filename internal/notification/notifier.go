// Package notification turns domain events into emails. Creation and
// decision mails are queued on a worker pool and their failures are only
// logged; the temporary password mail of a reset is sent synchronously.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/smartwork/internal/core/events"
	"github.com/frahmantamala/smartwork/internal/mail"
)

type Notifier struct {
	sender     mail.Sender
	pool       *Pool
	adminEmail string
	logger     *slog.Logger
}

func NewNotifier(sender mail.Sender, config PoolConfig, adminEmail string, logger *slog.Logger) *Notifier {
	n := &Notifier{
		sender:     sender,
		adminEmail: adminEmail,
		logger:     logger,
	}
	n.pool = NewPool(config, n.deliver, logger)
	return n
}

func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeRequestCreated, n.HandleRequestCreated)
	bus.Subscribe(events.EventTypeRequestDecided, n.HandleRequestDecided)
	bus.Subscribe(events.EventTypeUserCreated, n.HandleUserCreated)
}

func (n *Notifier) HandleRequestCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RequestCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, events.EventTypeRequestCreated)
	}
	if n.adminEmail == "" {
		n.logger.Warn("no admin mailbox configured, skipping request notification", "request_id", e.RequestID)
		return nil
	}

	subject, body := requestCreatedMessage(e.EmployeeName, e.When)
	return n.pool.Submit(Job{Kind: KindRequestCreated, To: n.adminEmail, Subject: subject, Body: body})
}

func (n *Notifier) HandleRequestDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RequestDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, events.EventTypeRequestDecided)
	}
	if e.EmployeeEmail == "" {
		n.logger.Debug("employee has no email, skipping decision notification",
			"request_id", e.RequestID,
			"username", e.EmployeeUsername)
		return nil
	}

	subject, body := decisionMessage(e.When, e.Approved, e.DecidedBy)
	return n.pool.Submit(Job{Kind: KindDecision, To: e.EmployeeEmail, Subject: subject, Body: body})
}

func (n *Notifier) HandleUserCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.UserCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, events.EventTypeUserCreated)
	}

	subject, body := temporaryPasswordMessage(e.Username, e.TemporaryPassword)
	return n.pool.Submit(Job{Kind: KindTemporaryPassword, To: e.Email, Subject: subject, Body: body})
}

// SendTemporaryPassword delivers the reset mail and reports the outcome.
func (n *Notifier) SendTemporaryPassword(ctx context.Context, to, username, temporaryPassword string) error {
	subject, body := temporaryPasswordMessage(username, temporaryPassword)
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		n.logger.Error("failed to send temporary password", "username", username, "error", err)
		return err
	}
	n.logger.Info("temporary password sent", "username", username)
	return nil
}

func (n *Notifier) Shutdown(ctx context.Context) error {
	return n.pool.Shutdown(ctx)
}

func (n *Notifier) deliver(job Job) {
	if err := n.sender.Send(context.Background(), job.To, job.Subject, job.Body); err != nil {
		n.logger.Error("notification delivery failed", "kind", job.Kind, "to", job.To, "error", err)
		return
	}
	n.logger.Info("notification delivered", "kind", job.Kind, "to", job.To)
}
