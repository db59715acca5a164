package remote

import (
	"context"
	"time"

	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
)

// TimeClock is the remote system that records punches and stores
// justifications.
type TimeClock interface {
	// ReadDays returns the raw punches and stored justification of every
	// day in [from, to].
	ReadDays(ctx context.Context, from, to time.Time) ([]journey.Day, error)
	// Justify stores text under code for day.
	Justify(ctx context.Context, day time.Time, code model.JustificationCode, text string) error
}

// HolidayCalendar looks up the public holidays of a year.
type HolidayCalendar interface {
	Holidays(ctx context.Context, year int) (journey.Holidays, error)
}
