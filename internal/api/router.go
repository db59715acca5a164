package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"timebank.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service handler.TimeBankService, loc *time.Location) *mux.Router {
	h := handler.TimeBankHandler{
		Service:  service,
		Location: loc,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/days/refresh", h.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/days/pending", h.PendingDays).Methods(http.MethodGet)
	api.HandleFunc("/days/today/expected-end", h.ExpectedEnd).Methods(http.MethodGet)
	api.HandleFunc("/days/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}/justification", h.Justify).Methods(http.MethodPut)
	api.HandleFunc("/days", h.ListDays).Methods(http.MethodGet)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
