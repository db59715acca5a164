package journey

import (
	"time"

	"timebank.service/internal/core/model"
)

// ExpectedJourneyEnd projects when today's open journey reaches the standard
// day. It only applies to today's record while an entry punch is still open,
// and returns false once the standard day is met.
func ExpectedJourneyEnd(rec model.DayRecord, now time.Time) (time.Time, bool) {
	punches := rec.Punches()
	if rec.IsHoliday || len(punches) == 0 || !rec.HasMissingPunch() {
		return time.Time{}, false
	}
	if !sameDate(rec.Date, now) {
		return time.Time{}, false
	}

	worked := rec.Journey.Business / 60 * 60
	remaining := StandardJourney - worked
	if remaining <= 0 {
		return time.Time{}, false
	}

	return punches[len(punches)-1].Add(remaining.Duration()), true
}
