// Package recurring holds weekly smart working requests. They share the
// request id space and the decision lifecycle with single-date requests.
package recurring

import (
	"context"
	"time"

	requestDatamodel "github.com/frahmantamala/smartwork/internal/core/datamodel/request"
	"github.com/frahmantamala/smartwork/internal/core/events"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

const (
	StatusPending  = requestDatamodel.StatusPending
	StatusApproved = requestDatamodel.StatusApproved
	StatusRejected = requestDatamodel.StatusRejected
)

type RecurringRequest struct {
	ID               int64      `json:"id"`
	EmployeeUsername string     `json:"employeeUsername"`
	EmployeeName     string     `json:"employeeName"`
	DayOfWeek        int        `json:"dayOfWeek"`
	DayName          string     `json:"dayName"`
	Status           string     `json:"status"`
	DecisionBy       *string    `json:"decisionBy"`
	DecisionAt       *time.Time `json:"decisionAt"`
}

func (r *RecurringRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *RecurringRequest) OwnedBy(u *coreuser.User) bool {
	return u != nil && u.Username == r.EmployeeUsername
}

// Label is the weekly schedule as it appears in mails.
func (r *RecurringRequest) Label() string {
	return events.RecurringLabel(r.DayName)
}

type ServiceAPI interface {
	Create(ctx context.Context, employee *coreuser.User, dto CreateRecurringDTO) (*RecurringRequest, error)
	SetDecision(ctx context.Context, id int64, approved bool, decidedBy string) (*RecurringRequest, error)
	Delete(ctx context.Context, actor *coreuser.User, id int64) error
	ListAll(ctx context.Context) ([]*RecurringRequest, error)
	ListMine(ctx context.Context, username string) ([]*RecurringRequest, error)
}

// Repository returns internal.ErrRequestNotFound for unknown ids.
type Repository interface {
	Create(ctx context.Context, r *RecurringRequest) error
	GetByID(ctx context.Context, id int64) (*RecurringRequest, error)
	ListAll(ctx context.Context) ([]*RecurringRequest, error)
	ListByEmployee(ctx context.Context, username string) ([]*RecurringRequest, error)
	Decide(ctx context.Context, id int64, status, decidedBy string, at time.Time) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*coreuser.User, error)
}

func ToDataModel(r *RecurringRequest) *requestDatamodel.RecurringRequest {
	return &requestDatamodel.RecurringRequest{
		ID:               r.ID,
		EmployeeUsername: r.EmployeeUsername,
		EmployeeName:     r.EmployeeName,
		DayOfWeek:        r.DayOfWeek,
		DayName:          r.DayName,
		Status:           r.Status,
		DecisionBy:       r.DecisionBy,
		DecisionAt:       r.DecisionAt,
	}
}

func FromDataModel(row *requestDatamodel.RecurringRequest) *RecurringRequest {
	return &RecurringRequest{
		ID:               row.ID,
		EmployeeUsername: row.EmployeeUsername,
		EmployeeName:     row.EmployeeName,
		DayOfWeek:        row.DayOfWeek,
		DayName:          row.DayName,
		Status:           row.Status,
		DecisionBy:       row.DecisionBy,
		DecisionAt:       row.DecisionAt,
	}
}
