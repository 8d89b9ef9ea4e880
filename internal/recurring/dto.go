package recurring

import (
	"strings"

	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/core/common/validation"
)

type CreateRecurringDTO struct {
	DayOfWeek *int   `json:"dayOfWeek"`
	DayName   string `json:"dayName"`
}

// Validate checks dayOfWeek is 0 (Sunday) through 6 (Saturday).
func (d CreateRecurringDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("dayOfWeek", d.DayOfWeek).Required().IntRange(0, 6, internal.ErrCodeInvalidDayOfWeek)
	v.Field("dayName", d.DayName).MaxLength(32)
	return v.Validate()
}

// WeekdayNames are the weekday labels shown to employees, indexed by
// dayOfWeek (0 is Sunday).
var WeekdayNames = [7]string{"Domenica", "Lunedì", "Martedì", "Mercoledì", "Giovedì", "Venerdì", "Sabato"}

// Name returns the supplied label or the Italian weekday name.
func (d CreateRecurringDTO) Name() string {
	if name := strings.TrimSpace(d.DayName); name != "" {
		return name
	}
	return WeekdayNames[*d.DayOfWeek]
}
