package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"timebank.service/internal/core/journey"
	"timebank.service/internal/core/model"
)

func newDaysCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "days",
		Short: "Show punches and the computed journey of each weekday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDays(cmd, o)
		},
	}
}

func runDays(cmd *cobra.Command, o *options) error {
	records, deps, err := o.records(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	now := o.today(deps)
	printed := 0
	for _, rec := range records {
		if isWeekend(rec.Date) {
			continue
		}
		printDay(out, rec)
		if end, ok := journey.ExpectedJourneyEnd(rec, now); ok {
			fmt.Fprintf(out, "  * Expected end: %s\n", formatClock(end))
		}
		fmt.Fprintln(out, strings.Repeat("-", 60))
		printed++
	}

	if printed == 0 {
		fmt.Fprintln(out, "No punches found in the selected period.")
	}
	return nil
}

func printDay(out io.Writer, rec model.DayRecord) {
	header := formatDate(rec.Date)

	switch {
	case rec.IsHoliday:
		fmt.Fprintf(out, "%s  Holiday - %s\n", header, rec.HolidayName)
		return
	case rec.IsEmpty():
		fmt.Fprintf(out, "%s  No punches\n", header)
		return
	}

	punches := make([]string, 0, len(rec.Punches()))
	for _, p := range rec.Punches() {
		punches = append(punches, formatClock(p))
	}
	fmt.Fprintf(out, "%s  %s  [%s]\n", header, strings.Join(punches, " - "), status(rec))

	j := rec.Journey
	fmt.Fprintf(out, "  * Total worked: %s\n", j.TotalWorked.Clock())
	fmt.Fprintf(out, "  * Business hours: %s\n", j.Business.Clock())
	if rec.HasCredit() {
		fmt.Fprintf(out, "  * Time bank: %s\n", j.Credit.Clock())
	}
	if rec.HasDayExtras() {
		fmt.Fprintf(out, "  * Day overtime: %s\n", j.DayExtra.Clock())
	}
	if rec.HasNightExtras() {
		fmt.Fprintf(out, "  * Night overtime: %s\n", j.NightExtra.Clock())
	}
	fmt.Fprintf(out, "  * Breaks: %s\n", j.Breaks.Clock())
	if rec.HasDebt() {
		fmt.Fprintf(out, "  * Debt: %s\n", j.Debt.Clock())
	}
	if text := rec.Justification(); text != "" {
		fmt.Fprintf(out, "  * Justification: %s\n", text)
	}
}

func newErrorsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "errors",
		Short: "List days with an odd number of punches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := o.records(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			found := false
			for _, rec := range records {
				if rec.IsHoliday || !rec.HasMissingPunch() {
					continue
				}
				fmt.Fprintf(out, "%s\t%d punches\n", formatDate(rec.Date), len(rec.Punches()))
				found = true
			}
			if !found {
				fmt.Fprintln(out, "No punch errors in the selected period.")
			}
			return nil
		},
	}
}

func newExtrasCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extras",
		Short: "List days with overtime or time-bank credit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := o.records(cmd.Context())
			if err != nil {
				return err
			}

			var extras []model.DayRecord
			for _, rec := range records {
				if rec.NeedsJustification() {
					extras = append(extras, rec)
				}
			}

			out := cmd.OutOrStdout()
			if len(extras) == 0 {
				fmt.Fprintln(out, "No overtime in the selected period.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "DATE\tBUSINESS\tDAY OVERTIME\tNIGHT OVERTIME\tTIME BANK\tJUSTIFICATION")
			for _, rec := range extras {
				j := rec.Journey
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					formatDate(rec.Date),
					formatSeconds(j.Business),
					formatSeconds(j.DayExtra),
					formatSeconds(j.NightExtra),
					formatSeconds(j.Credit),
					rec.Justification(),
				)
			}
			return tw.Flush()
		},
	}
}

func newBreaksCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "breaks",
		Short: "List the breaks recorded on each weekday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := o.records(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "DATE\tBREAKS")
			for _, rec := range records {
				if isWeekend(rec.Date) {
					continue
				}
				switch {
				case rec.IsHoliday:
					fmt.Fprintf(tw, "%s\tHoliday\n", formatDate(rec.Date))
				case rec.IsEmpty():
					fmt.Fprintf(tw, "%s\tNo punches\n", formatDate(rec.Date))
				default:
					fmt.Fprintf(tw, "%s\t%s\n", formatDate(rec.Date), rec.Journey.Breaks.Clock())
				}
			}
			return tw.Flush()
		},
	}
}

func newExpectedEndCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "expected-end",
		Short: "Show when today's journey reaches 8h15",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := o.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			today := journey.StartOfDay(o.today(deps))
			o.from, o.to = today.Format(dateLayout), today.Format(dateLayout)

			records, _, err := o.records(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range records {
				if end, ok := journey.ExpectedJourneyEnd(rec, o.today(deps)); ok {
					fmt.Fprintf(out, "Expected end: %s\n", formatClock(end))
					return nil
				}
			}
			fmt.Fprintln(out, "No open journey today.")
			return nil
		},
	}
}
