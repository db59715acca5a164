package journey

import (
	"time"

	"timebank.service/internal/core/model"
)

// Day is the raw input for one calendar day as read from the time clock.
type Day struct {
	Date          time.Time
	Punches       Punches
	Justification string
}

// Reconcile computes the journey of a working day. It is a pure function:
// the same punches always give the same record. A day without punches has
// an all-zero journey; no debt is charged for it.
func Reconcile(punches Punches) model.Journey {
	if punches.Empty() {
		return model.Journey{}
	}
	fulltime, breaks := ClassifyBreaks(punches)
	dayExtra, nightExtra := ComputeExtras(punches)
	return Aggregate(fulltime, breaks, dayExtra, nightExtra)
}

// Compute builds the DayRecord for day. Holidays, explicit or bridge days,
// short-circuit to an all-zero record.
func Compute(day Day, holidays Holidays) model.DayRecord {
	date := StartOfDay(day.Date)

	if name, ok := holidays.Lookup(date); ok {
		return model.NewHolidayRecord(date, name)
	}
	if IsBridgeDay(date, day.Punches, holidays) {
		return model.NewHolidayRecord(date, BridgeDayName)
	}

	return model.NewDayRecord(
		date,
		day.Punches,
		Reconcile(day.Punches),
		model.NewSubmission(day.Justification, true),
	)
}
