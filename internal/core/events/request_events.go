package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRequestCreated = "request.created"
	EventTypeRequestDecided = "request.decided"
	EventTypeUserCreated    = "user.created"
)

const (
	KindSingle    = "single"
	KindRecurring = "recurring"
)

// RecurringLabel renders a weekly schedule as it appears in request events.
func RecurringLabel(dayName string) string {
	return "ogni " + dayName
}

// RequestCreatedEvent is emitted once a single-date or recurring request is persisted.
// When describes the requested day ("2025-03-10" or "ogni Lunedì").
type RequestCreatedEvent struct {
	BaseEvent
	RequestID        int64  `json:"request_id"`
	Kind             string `json:"kind"`
	EmployeeUsername string `json:"employee_username"`
	EmployeeName     string `json:"employee_name"`
	When             string `json:"when"`
}

func NewRequestCreatedEvent(requestID int64, kind, employeeUsername, employeeName, when string) *RequestCreatedEvent {
	return &RequestCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":        requestID,
				"kind":              kind,
				"employee_username": employeeUsername,
				"when":              when,
			},
		},
		RequestID:        requestID,
		Kind:             kind,
		EmployeeUsername: employeeUsername,
		EmployeeName:     employeeName,
		When:             when,
	}
}

type RequestDecidedEvent struct {
	BaseEvent
	RequestID        int64  `json:"request_id"`
	Kind             string `json:"kind"`
	EmployeeUsername string `json:"employee_username"`
	EmployeeEmail    string `json:"employee_email"`
	When             string `json:"when"`
	Approved         bool   `json:"approved"`
	DecidedBy        string `json:"decided_by"`
}

func NewRequestDecidedEvent(requestID int64, kind, employeeUsername, employeeEmail, when string, approved bool, decidedBy string) *RequestDecidedEvent {
	return &RequestDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":        requestID,
				"kind":              kind,
				"employee_username": employeeUsername,
				"approved":          approved,
				"decided_by":        decidedBy,
			},
		},
		RequestID:        requestID,
		Kind:             kind,
		EmployeeUsername: employeeUsername,
		EmployeeEmail:    employeeEmail,
		When:             when,
		Approved:         approved,
		DecidedBy:        decidedBy,
	}
}

// UserCreatedEvent carries the plaintext temporary password to the mail worker.
// It is never logged; Data omits it.
type UserCreatedEvent struct {
	BaseEvent
	Username          string `json:"username"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"-"`
}

func NewUserCreatedEvent(username, email, temporaryPassword string) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"username": username,
				"email":    email,
			},
		},
		Username:          username,
		Email:             email,
		TemporaryPassword: temporaryPassword,
	}
}
