package journey

import (
	"time"

	"timebank.service/internal/core/model"
)

// Clock hours bounding the business window and the night-overtime window.
const (
	BusinessStartHour = 7
	BusinessEndHour   = 19
	NightStartHour    = 22
)

// ComputeExtras returns the overtime worked outside the business window.
// Days without punches or with a missing punch have no extras, since their
// end is unknown.
func ComputeExtras(p Punches) (dayExtra, nightExtra model.Seconds) {
	if p.Empty() || p.MissingPunch() {
		return 0, 0
	}

	first, last := p[0], p[len(p)-1]

	// Each window only counts the part of the stay that falls inside it.
	if start := clockAt(first, BusinessStartHour); first.Before(start) {
		dayExtra += secondsBetween(first, earliest(last, start))
	}

	if end := clockAt(first, BusinessEndHour); last.After(end) {
		dayExtra += secondsBetween(latest(first, end), last)
	}

	// Past 22:00 the same stretch was already counted from 19:00 above.
	if night := clockAt(first, NightStartHour); last.After(night) {
		nightExtra = secondsBetween(latest(first, night), last)
		dayExtra -= nightExtra
	}

	return dayExtra, nightExtra
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
