package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"timebank.service/internal/core"
	"timebank.service/internal/core/model"
	"timebank.service/internal/ports/repository"
)

const dateLayout = "2006-01-02"

// TimeBankService is what the handlers need from core.TimeBankService.
type TimeBankService interface {
	DefaultPeriod() (time.Time, time.Time)
	Refresh(ctx context.Context, from, to time.Time) ([]model.DayRecord, error)
	Days(ctx context.Context, from, to time.Time) ([]model.DayRecord, error)
	PendingDays(ctx context.Context) ([]model.DayRecord, error)
	Justify(ctx context.Context, day time.Time, text string) error
	ExpectedJourneyEnd(ctx context.Context) (time.Time, bool, error)
}

type TimeBankHandler struct {
	Service  TimeBankService
	Location *time.Location
}

var errBadDate = errors.New("dates must be formatted as YYYY-MM-DD")

// Refresh handles POST /days/refresh.
func (h *TimeBankHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	days, err := h.Service.Refresh(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponses(days))
}

// ListDays handles GET /days.
func (h *TimeBankHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	days, err := h.Service.Days(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponses(days))
}

// PendingDays handles GET /days/pending.
func (h *TimeBankHandler) PendingDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.Service.PendingDays(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponses(days))
}

// Justify handles PUT /days/{date}/justification.
func (h *TimeBankHandler) Justify(w http.ResponseWriter, r *http.Request) {
	day, err := time.ParseInLocation(dateLayout, mux.Vars(r)["date"], h.location())
	if err != nil {
		writeError(w, r, errBadDate)
		return
	}

	var req JustificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.Justify(r.Context(), day, req.Justification); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"message": "Justification recorded for asynchronous submission."})
}

// ExpectedEnd handles GET /days/today/expected-end.
func (h *TimeBankHandler) ExpectedEnd(w http.ResponseWriter, r *http.Request) {
	end, ok, err := h.Service.ExpectedJourneyEnd(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, ExpectedEndResponse{ExpectedEnd: formatClock(end)})
}

// period reads the from/to query parameters, falling back to the service's
// default period for the missing ones.
func (h *TimeBankHandler) period(r *http.Request) (time.Time, time.Time, error) {
	from, to := h.Service.DefaultPeriod()

	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, h.location())
		if err != nil {
			return time.Time{}, time.Time{}, errBadDate
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, h.location())
		if err != nil {
			return time.Time{}, time.Time{}, errBadDate
		}
		to = t
	}
	return from, to, nil
}

func (h *TimeBankHandler) location() *time.Location {
	if h.Location == nil {
		return time.Local
	}
	return h.Location
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrDayNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, errBadDate),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrNothingToJustify),
		errors.Is(err, core.ErrEmptyJustification):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		http.Error(w, "Service error processing request", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
