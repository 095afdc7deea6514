package inventory

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// Period is a half-open time window [Start, End)
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod creates a period, requiring End after Start
func NewPeriod(start, end time.Time) (Period, error) {
	if !end.After(start) {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Period end must be after start")
	}
	return Period{Start: start, End: end}, nil
}

// NewDateRange builds the period covering the calendar days from and to, both inclusive
func NewDateRange(from, to time.Time) (Period, error) {
	start := shared.StartOfDay(from)
	end := shared.StartOfDay(to).AddDate(0, 0, 1)
	return NewPeriod(start, end)
}

// MonthPeriod returns the calendar month in loc
func MonthPeriod(year int, month time.Month, loc *time.Location) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// Contains reports whether t falls inside the window
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// IsBefore reports whether t is strictly before the window
func (p Period) IsBefore(t time.Time) bool {
	return t.Before(p.Start)
}
