// Command timebank reconciles the caller's time-clock punches from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"timebank.service/internal/adapters/calendar"
	"timebank.service/internal/adapters/timeclock"
	"timebank.service/internal/cli"
	"timebank.service/internal/config"
)

func main() {
	if err := cli.Execute(loadDeps); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadDeps(ctx context.Context) (*cli.Deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.TimeClockUser == "" || cfg.TimeClockPassword == "" {
		return nil, fmt.Errorf("TIMECLOCK_USER and TIMECLOCK_PASSWORD must be set")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	clock, err := timeclock.NewClient(cfg.TimeClockURL, cfg.TimeClockUser, cfg.TimeClockPassword, loc)
	if err != nil {
		return nil, err
	}
	if err := clock.Login(ctx); err != nil {
		return nil, err
	}

	return &cli.Deps{
		Clock:    clock,
		Calendar: calendar.NewClient(cfg.CalendarURL, cfg.CalendarCity, cfg.CalendarToken, loc),
		Location: loc,
	}, nil
}
