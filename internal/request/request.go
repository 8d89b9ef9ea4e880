package request

import (
	"context"
	"time"

	requestDatamodel "github.com/frahmantamala/smartwork/internal/core/datamodel/request"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
)

const (
	StatusPending  = requestDatamodel.StatusPending
	StatusApproved = requestDatamodel.StatusApproved
	StatusRejected = requestDatamodel.StatusRejected

	// DateLayout is how a request day travels in payloads and mails.
	DateLayout = "2006-01-02"
)

// Request is a single-date smart working request.
type Request struct {
	ID               int64      `json:"id"`
	EmployeeUsername string     `json:"employeeUsername"`
	EmployeeName     string     `json:"employeeName"`
	Date             time.Time  `json:"date"`
	Status           string     `json:"status"`
	DecisionBy       *string    `json:"decisionBy"`
	DecisionAt       *time.Time `json:"decisionAt"`
}

func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// OwnedBy reports whether u may act on r as its employee.
func (r *Request) OwnedBy(u *coreuser.User) bool {
	return u != nil && u.Username == r.EmployeeUsername
}

func (r *Request) Day() string {
	return r.Date.UTC().Format(DateLayout)
}

type ServiceAPI interface {
	Create(ctx context.Context, employee *coreuser.User, dto CreateRequestDTO) (*Request, error)
	SetDecision(ctx context.Context, id int64, approved bool, decidedBy string) (*Request, error)
	Delete(ctx context.Context, actor *coreuser.User, id int64) error
	ListAll(ctx context.Context) ([]*Request, error)
	ListMine(ctx context.Context, username string) ([]*Request, error)
}

// Repository returns internal.ErrRequestNotFound for unknown ids.
type Repository interface {
	// Create assigns r.ID from the shared request id space and persists r.
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	ListAll(ctx context.Context) ([]*Request, error)
	ListByEmployee(ctx context.Context, username string) ([]*Request, error)
	// Decide moves a pending request to status, reporting false when the
	// request is missing or no longer pending.
	Decide(ctx context.Context, id int64, status, decidedBy string, at time.Time) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// UserLookup resolves the employee address for decision mails.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*coreuser.User, error)
}

func ToDataModel(r *Request) *requestDatamodel.Request {
	return &requestDatamodel.Request{
		ID:               r.ID,
		EmployeeUsername: r.EmployeeUsername,
		EmployeeName:     r.EmployeeName,
		Date:             r.Date,
		Status:           r.Status,
		DecisionBy:       r.DecisionBy,
		DecisionAt:       r.DecisionAt,
	}
}

func FromDataModel(row *requestDatamodel.Request) *Request {
	return &Request{
		ID:               row.ID,
		EmployeeUsername: row.EmployeeUsername,
		EmployeeName:     row.EmployeeName,
		Date:             row.Date.UTC(),
		Status:           row.Status,
		DecisionBy:       row.DecisionBy,
		DecisionAt:       row.DecisionAt,
	}
}
