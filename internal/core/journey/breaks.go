package journey

import (
	"time"

	"timebank.service/internal/core/model"
)

// ShortBreakTolerance is the longest gap, alone or summed within one clock
// hour, that still counts as paid time.
const ShortBreakTolerance model.Seconds = 600

// ClassifyBreaks splits the gaps between punches into worked time and breaks.
//
// Gaps closed by an exit punch are worked time. Gaps closed by an entry punch
// are breaks; those up to ShortBreakTolerance are summed per clock hour of the
// entry punch, and an hour whose sum stays within the tolerance is paid back
// as worked time.
func ClassifyBreaks(p Punches) (fulltime, breaks model.Seconds) {
	hourly := make(map[int]model.Seconds)

	for i := 1; i < len(p); i++ {
		gap := secondsBetween(p[i-1], p[i])
		position := i + 1

		switch {
		case position%2 == 0:
			fulltime += gap
		case gap <= ShortBreakTolerance:
			hourly[p[i].Hour()] += gap
		default:
			breaks += gap
		}
	}

	for _, short := range hourly {
		if short <= ShortBreakTolerance {
			fulltime += short
		} else {
			breaks += short
		}
	}

	return fulltime, breaks
}

func secondsBetween(from, to time.Time) model.Seconds {
	return model.Seconds(to.Sub(from) / time.Second)
}
