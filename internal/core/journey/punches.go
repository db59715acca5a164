package journey

import (
	"errors"
	"time"
)

var (
	ErrPunchesOutOfOrder = errors.New("punches are not in chronological order")
	ErrPunchesMixedDates = errors.New("punches span more than one calendar date")
)

// Punches is one day's clock-in/clock-out sequence. Odd positions (1-based)
// are entries and even positions are exits.
type Punches []time.Time

// Empty reports a day with no punches recorded.
func (p Punches) Empty() bool {
	return len(p) == 0
}

// MissingPunch reports an odd punch count: an entry without its exit, or the
// other way round.
func (p Punches) MissingPunch() bool {
	return len(p)%2 != 0
}

// Validate checks the ordering contract the engine relies on. Adapters call it
// before handing scraped punches to Compute.
func (p Punches) Validate() error {
	for i := 1; i < len(p); i++ {
		if p[i].Before(p[i-1]) {
			return ErrPunchesOutOfOrder
		}
		if !sameDate(p[i], p[0]) {
			return ErrPunchesMixedDates
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// clockAt returns the given wall-clock hour on ref's date.
func clockAt(ref time.Time, hour int) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, ref.Location())
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return clockAt(t, 0)
}
