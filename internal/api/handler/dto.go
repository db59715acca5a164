package handler

import (
	"time"

	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
)

type JustificationRequest struct {
	Justification string `json:"justification"`
}

type DayResponse struct {
	Date          string                    `json:"date"`
	IsHoliday     bool                      `json:"isHoliday"`
	HolidayName   string                    `json:"holidayName,omitempty"`
	Punches       []string                  `json:"punches"`
	Journey       model.Journey             `json:"journey"`
	Justification string                    `json:"justification,omitempty"`
	Synced        bool                      `json:"synced"`
	MissingPunch  bool                      `json:"missingPunch"`
	Pending       bool                      `json:"pending"`
	Codes         []model.JustificationCode `json:"codes,omitempty"`
}

type ExpectedEndResponse struct {
	ExpectedEnd string `json:"expectedEnd"`
}

func toDayResponse(rec model.DayRecord) DayResponse {
	punches := make([]string, 0, len(rec.Punches()))
	for _, p := range rec.Punches() {
		punches = append(punches, p.Format("15:04"))
	}

	return DayResponse{
		Date:          journey.DateKey(rec.Date),
		IsHoliday:     rec.IsHoliday,
		HolidayName:   rec.HolidayName,
		Punches:       punches,
		Journey:       rec.Journey,
		Justification: rec.Justification(),
		Synced:        rec.Synced(),
		MissingPunch:  !rec.IsHoliday && rec.HasMissingPunch(),
		Pending:       rec.IsPending(),
		Codes:         journey.ResolveCodes(rec),
	}
}

func toDayResponses(recs []model.DayRecord) []DayResponse {
	out := make([]DayResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDayResponse(rec))
	}
	return out
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}
