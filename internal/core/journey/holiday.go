package journey

import "time"

// BridgeDayName labels a day off inferred from the following holiday.
const BridgeDayName = "Bridge day"

const dateKeyLayout = "2006-01-02"

// Holidays maps calendar dates to holiday names.
type Holidays map[string]string

// DateKey is the calendar date of t, independent of its clock and location.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

func (h Holidays) Add(date time.Time, name string) {
	h[DateKey(date)] = name
}

func (h Holidays) Lookup(date time.Time) (string, bool) {
	name, ok := h[DateKey(date)]
	return name, ok
}

// Merge copies other into h.
func (h Holidays) Merge(other Holidays) {
	for k, v := range other {
		h[k] = v
	}
}

// IsBridgeDay reports a day without punches right before a known holiday.
// Such a day is treated as a holiday itself.
func IsBridgeDay(date time.Time, punches Punches, holidays Holidays) bool {
	if !punches.Empty() {
		return false
	}
	_, ok := holidays.Lookup(date.AddDate(0, 0, 1))
	return ok
}
