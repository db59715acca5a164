package journey

import "timebank.service/internal/core/model"

// ResolveCodes lists the justification codes a record must be submitted
// under, in submission order. Holidays and days without overtime or credit
// need none.
func ResolveCodes(rec model.DayRecord) []model.JustificationCode {
	var codes []model.JustificationCode

	if rec.HasCredit() {
		codes = append(codes, model.CodeTimeBank)
	}
	if rec.HasDayExtras() {
		codes = append(codes, model.CodeDayOvertime)
	}
	if rec.HasNightExtras() {
		codes = append(codes, model.CodeNightOvertime)
	}

	return codes
}
