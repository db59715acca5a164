package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/unicode/norm"

	"timebank.service/internal/core/journey"
)

// Client reads public holidays from the calendar API, e.g.
// https://api.calendario.com.br/?json=true&ano=2024&ibge=3304557&token=...
type Client struct {
	baseURL string
	city    string
	token   string
	loc     *time.Location
	http    *http.Client

	// MaxTries bounds the attempts per year, including the first one.
	MaxTries uint
	// NewBackOff builds the delay policy between attempts.
	NewBackOff func() backoff.BackOff
}

type holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func NewClient(baseURL, city, token string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		baseURL: baseURL,
		city:    city,
		token:   token,
		loc:     loc,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		MaxTries: 4,
		NewBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Holidays returns the holidays of year, retrying transient failures.
func (c *Client) Holidays(ctx context.Context, year int) (journey.Holidays, error) {
	operation := func() (journey.Holidays, error) {
		return c.fetch(ctx, year)
	}

	holidays, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.NewBackOff()),
		backoff.WithMaxTries(c.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Ctx(ctx).Warn().Err(err).Int("year", year).Dur("retry_in", next).Msg("Holiday calendar request failed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays for %d: %w", year, err)
	}
	return holidays, nil
}

func (c *Client) fetch(ctx context.Context, year int) (journey.Holidays, error) {
	q := url.Values{
		"json":  {"true"},
		"ano":   {strconv.Itoa(year)},
		"ibge":  {c.city},
		"token": {c.token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create calendar request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call calendar api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("calendar api returned status code: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return nil, backoff.Permanent(fmt.Errorf("calendar api returned status code: %d", resp.StatusCode))
	}

	var entries []holiday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode calendar response: %w", err))
	}

	holidays := journey.Holidays{}
	for _, e := range entries {
		raw := []rune(strings.TrimSpace(norm.NFKD.String(e.Date)))
		if len(raw) > 10 {
			raw = raw[:10]
		}
		date, err := time.ParseInLocation("02/01/2006", string(raw), c.loc)
		if err != nil {
			log.Ctx(ctx).Warn().Str("date", e.Date).Msg("Skipping holiday with invalid date")
			continue
		}
		holidays.Add(date, e.Name)
	}
	return holidays, nil
}
