package cli

import (
	"time"

	"timebank.service/internal/core/model"
)

func formatDate(t time.Time) string {
	return t.Format("Mon, 02/01/06")
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}

func formatSeconds(s model.Seconds) string {
	if s == 0 {
		return "-"
	}
	return s.Clock()
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// status is the one-word state shown next to each day.
func status(rec model.DayRecord) string {
	switch {
	case rec.IsHoliday:
		return "holiday"
	case rec.IsEmpty():
		return "no punches"
	case rec.HasMissingPunch():
		return "missing punch"
	case rec.IsPending():
		return "pending"
	case rec.NeedsJustification():
		return "justified"
	case rec.HasDebt():
		return "short"
	default:
		return "ok"
	}
}
