package request

import "time"

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

type Request struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement:false"`
	EmployeeUsername string     `gorm:"column:employee_username;not null;index"`
	EmployeeName     string     `gorm:"column:employee_name;not null"`
	Date             time.Time  `gorm:"column:date;not null"`
	Status           string     `gorm:"column:status;not null"`
	DecisionBy       *string    `gorm:"column:decision_by"`
	DecisionAt       *time.Time `gorm:"column:decision_at"`
}

func (Request) TableName() string {
	return "requests"
}

type RecurringRequest struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement:false"`
	EmployeeUsername string     `gorm:"column:employee_username;not null;index"`
	EmployeeName     string     `gorm:"column:employee_name;not null"`
	DayOfWeek        int        `gorm:"column:day_of_week;not null"`
	DayName          string     `gorm:"column:day_name;not null"`
	Status           string     `gorm:"column:status;not null"`
	DecisionBy       *string    `gorm:"column:decision_by"`
	DecisionAt       *time.Time `gorm:"column:decision_at"`
}

func (RecurringRequest) TableName() string {
	return "recurring_requests"
}
