package journey

import "timebank.service/internal/core/model"

const (
	// StandardJourney is the 8h15m workday.
	StandardJourney model.Seconds = 29700
	// DebtThreshold is 8h10m. Business time above it and below
	// StandardJourney yields neither credit nor debt.
	DebtThreshold model.Seconds = 29400
	// LunchBreak is imputed on long days whose recorded breaks fall short of it.
	LunchBreak model.Seconds = 3600
	// LunchThreshold is the worked time (6h) from which lunch is mandatory.
	LunchThreshold model.Seconds = 21600
)

// Aggregate turns the classified worked time, breaks and extras into the
// day's journey.
func Aggregate(fulltime, breaks, dayExtra, nightExtra model.Seconds) model.Journey {
	if breaks < LunchBreak && fulltime >= LunchThreshold {
		fulltime -= LunchBreak
		breaks = LunchBreak
	}

	business := fulltime - dayExtra - nightExtra
	if business < 0 {
		business = 0
	}

	var credit, debt model.Seconds
	switch {
	case business >= StandardJourney:
		credit = business - StandardJourney
		business = StandardJourney
	case business > DebtThreshold:
		// tolerance band
	default:
		debt = StandardJourney - business
	}

	return model.Journey{
		Business:    business,
		DayExtra:    dayExtra,
		NightExtra:  nightExtra,
		Credit:      credit,
		Debt:        debt,
		TotalWorked: business + dayExtra + nightExtra + credit,
		Breaks:      breaks,
	}
}
