package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"timebank.service/internal/core"
	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
	"timebank.service/internal/ports/remote"
)

var errJustifyTarget = errors.New("choose either --all or --date")

func newJustifyCmd(o *options) *cobra.Command {
	var (
		all         bool
		date        string
		text        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "justify",
		Short: "Submit overtime justifications to the time clock",
		Long: `justify submits a justification for the overtime and time-bank credit
of one day (--date) or of every pending day of the period (--all).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (date != "") {
				return errJustifyTarget
			}

			records, deps, err := o.records(cmd.Context())
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return missingText(records)
			}

			var targets []model.DayRecord
			if all {
				for _, rec := range records {
					if rec.IsPending() {
						targets = append(targets, rec)
					}
				}
				if len(targets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending justifications.")
					return nil
				}
			} else {
				day, err := time.ParseInLocation(dateLayout, date, deps.Location)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				rec, ok := find(records, day)
				if !ok {
					return fmt.Errorf("%s is outside the selected period", date)
				}
				if len(journey.ResolveCodes(rec)) == 0 {
					return core.ErrNothingToJustify
				}
				targets = append(targets, rec)
			}

			n, err := submit(cmd.Context(), deps.Clock, targets, text, concurrency)
			fmt.Fprintf(cmd.OutOrStdout(), "Justified %d of %d day(s).\n", n, len(targets))
			return err
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Justify every pending day of the period")
	cmd.Flags().StringVar(&date, "date", "", "Justify a single day (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Justification text")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Days submitted at the same time")

	return cmd
}

// submit sends every code of every target day and returns how many days
// the time clock fully accepted.
func submit(ctx context.Context, clock remote.TimeClock, targets []model.DayRecord, text string, concurrency int) (int, error) {
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, rec := range targets {
		g.Go(func() error {
			for _, code := range journey.ResolveCodes(rec) {
				if err := clock.Justify(gctx, rec.Date, code, text); err != nil {
					return fmt.Errorf("%s: %w", rec.Date.Format(dateLayout), err)
				}
			}
			done.Add(1)
			log.Debug().Str("day", rec.Date.Format(dateLayout)).Msg("Justified")
			return nil
		})
	}

	err := g.Wait()
	return int(done.Load()), err
}

func find(records []model.DayRecord, day time.Time) (model.DayRecord, bool) {
	key := journey.DateKey(day)
	for _, rec := range records {
		if journey.DateKey(rec.Date) == key {
			return rec, true
		}
	}
	return model.DayRecord{}, false
}

// missingText reports the absent --text along with the texts already used
// in the period.
func missingText(records []model.DayRecord) error {
	suggestions := core.SuggestJustifications(records)
	if len(suggestions) == 0 {
		return core.ErrEmptyJustification
	}
	return fmt.Errorf("%w; previously used: %q", core.ErrEmptyJustification, suggestions)
}
