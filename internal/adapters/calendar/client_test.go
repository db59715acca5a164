package calendar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebank.service/internal/adapters/calendar"
)

func newClient(srv *httptest.Server) *calendar.Client {
	c := calendar.NewClient(srv.URL+"/", "3304557", "tok", time.UTC)
	c.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestClient_Holidays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024", r.URL.Query().Get("ano"))
		assert.Equal(t, "3304557", r.URL.Query().Get("ibge"))
		_, _ = w.Write([]byte(`[
			{"date":"01/01/2024","name":"Ano Novo"},
			{"date":"13/02/2024","name":"Carnaval"},
			{"date":"not a date","name":"Broken"}
		]`))
	}))
	defer srv.Close()

	holidays, err := newClient(srv).Holidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Len(t, holidays, 2)

	name, ok := holidays.Lookup(time.Date(2024, 2, 13, 10, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "Carnaval", name)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"date":"01/05/2024","name":"Dia do Trabalho"}]`))
	}))
	defer srv.Close()

	holidays, err := newClient(srv).Holidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Len(t, holidays, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv).Holidays(context.Background(), 2024)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(srv)
	c.MaxTries = 2

	_, err := c.Holidays(context.Background(), 2024)
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
