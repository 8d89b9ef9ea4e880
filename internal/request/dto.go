package request

import (
	"strings"
	"time"

	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/core/common/validation"
)

type CreateRequestDTO struct {
	Date string `json:"date"`
}

// Day parses the requested date as YYYY-MM-DD or RFC 3339 and truncates it
// to UTC midnight.
func (d CreateRequestDTO) Day() (time.Time, *internal.AppError) {
	v := validation.NewValidator()
	v.Field("date", d.Date).Required()
	if err := v.Validate(); err != nil {
		return time.Time{}, err
	}

	raw := strings.TrimSpace(d.Date)
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		return time.Time{}, internal.NewValidationFieldError("date", "date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
