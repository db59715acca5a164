package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timebank.service/internal/core"
	"timebank.service/internal/core/model"
	"timebank.service/internal/ports/remote"
	"timebank.service/pkg/logger"
)

const dateLayout = "2006-01-02"

// Deps are the remote systems the commands talk to. The CLI reads the time
// clock directly and keeps no state of its own.
type Deps struct {
	Clock    remote.TimeClock
	Calendar remote.HolidayCalendar
	Location *time.Location
	Now      func() time.Time
}

// Loader builds Deps once a command actually needs them, so --help works
// without credentials.
type Loader func(ctx context.Context) (*Deps, error)

type options struct {
	load    Loader
	deps    *Deps
	verbose bool
	from    string
	to      string
}

// NewRootCommand assembles the timebank command tree. Without a
// subcommand it behaves like "days".
func NewRootCommand(load Loader) *cobra.Command {
	o := &options{load: load}

	root := &cobra.Command{
		Use:   "timebank",
		Short: "Reconcile time-clock punches into worked time, overtime and time bank",
		Long: `timebank reads your punches from the time clock, computes each day's
business hours, overtime and time-bank balance, and submits the
justifications the time clock requires for overtime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetupCLI(cmd.ErrOrStderr(), o.verbose)
			return nil
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDays(cmd, o)
		},
	}

	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log requests to the time clock")
	root.PersistentFlags().StringVar(&o.from, "from", "", "First day of the period (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&o.to, "to", "", "Last day of the period (YYYY-MM-DD)")

	root.AddCommand(
		newDaysCmd(o),
		newErrorsCmd(o),
		newExtrasCmd(o),
		newBreaksCmd(o),
		newJustifyCmd(o),
		newExpectedEndCmd(o),
	)

	return root
}

func (o *options) dependencies(ctx context.Context) (*Deps, error) {
	if o.deps != nil {
		return o.deps, nil
	}
	deps, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	o.deps = deps
	return deps, nil
}

func (o *options) today(deps *Deps) time.Time {
	return deps.Now().In(deps.Location)
}

// period resolves --from/--to, defaulting to the window the time clock
// still accepts justifications for.
func (o *options) period(deps *Deps) (time.Time, time.Time, error) {
	from, to := core.DefaultPeriod(o.today(deps))

	if o.from != "" {
		t, err := time.ParseInLocation(dateLayout, o.from, deps.Location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		from = t
	}
	if o.to != "" {
		t, err := time.ParseInLocation(dateLayout, o.to, deps.Location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, core.ErrInvalidPeriod
	}
	return from, to, nil
}

// records reads and reconciles the selected period.
func (o *options) records(ctx context.Context) ([]model.DayRecord, *Deps, error) {
	deps, err := o.dependencies(ctx)
	if err != nil {
		return nil, nil, err
	}

	from, to, err := o.period(deps)
	if err != nil {
		return nil, nil, err
	}

	holidays, err := core.LoadHolidays(ctx, deps.Calendar, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load holidays: %w", err)
	}

	days, err := deps.Clock.ReadDays(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read punches: %w", err)
	}

	return core.ComputeDays(days, holidays), deps, nil
}

var errNoLoader = errors.New("no dependency loader configured")

// Execute runs the command tree with a background context.
func Execute(load Loader) error {
	if load == nil {
		return errNoLoader
	}
	return NewRootCommand(load).ExecuteContext(context.Background())
}
