package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/calendar/store"
)

type periodFlags struct {
	typ   string
	begin string
	limit int
}

func (f *periodFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.typ, "type", "weekly", "Pay period type: weekly, bi-weekly, semi-monthly, monthly")
	c.Flags().StringVar(&f.begin, "begin", "", "Begin day of the anchor period (YYYY-MM-DD)")
	c.Flags().IntVar(&f.limit, "max-walk", calendar.DefaultMaxSteps, "Maximum periods created by one lookup")
	_ = c.MarkFlagRequired("begin")
}

// seeded returns a materializer over a fresh in-memory store holding the
// anchor period.
func (f *periodFlags) seeded(ctx context.Context) (*calendar.Materializer, *store.Memory, error) {
	typ, err := calendar.ParsePayPeriodType(f.typ)
	if err != nil {
		return nil, nil, err
	}
	begin, err := calendar.ParseDay(calendar.DayLayout, f.begin)
	if err != nil {
		return nil, nil, fmt.Errorf("--begin: %w", err)
	}
	mem := store.NewMemory()
	m := calendar.NewMaterializer(mem, calendar.WithMaxSteps(f.limit))
	if _, err := m.Seed(ctx, calendar.NewPayPeriod(0, typ, begin)); err != nil {
		return nil, nil, err
	}
	return m, mem, nil
}

func newPeriodCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "period",
		Short: "Walk pay period chains",
	}
	c.AddCommand(newPeriodWalkCmd(), newPeriodRangeCmd())
	return c
}

func newPeriodWalkCmd() *cobra.Command {
	var (
		f   periodFlags
		day string
	)
	c := &cobra.Command{
		Use:   "walk",
		Short: "Find the pay period containing a day",
		Long: `Anchors a chain at --begin and walks it to the period containing --day.

Examples:
  paycal period walk --type weekly --begin 2014-01-01 --day 2014-01-16
  paycal period walk --type semi-monthly --begin 2014-01-01 --day 2013-11-20`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			target, err := calendar.ParseDay(calendar.DayLayout, day)
			if err != nil {
				return fmt.Errorf("--day: %w", err)
			}
			m, mem, err := f.seeded(c.Context())
			if err != nil {
				return err
			}
			p, err := m.Containing(c.Context(), 0, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s\t%s\t%d days\t%d created\n", p.Begin, p.End, p.Length(), mem.Inserts()-1)
			return nil
		},
	}
	f.register(c)
	c.Flags().StringVar(&day, "day", "", "Day to look up (YYYY-MM-DD)")
	_ = c.MarkFlagRequired("day")
	return c
}

func newPeriodRangeCmd() *cobra.Command {
	var (
		f        periodFlags
		from, to string
	)
	c := &cobra.Command{
		Use:   "range",
		Short: "List the pay periods overlapping a range of days",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			fromDay, err := calendar.ParseDay(calendar.DayLayout, from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toDay, err := calendar.ParseDay(calendar.DayLayout, to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			m, _, err := f.seeded(c.Context())
			if err != nil {
				return err
			}
			periods, err := m.Range(c.Context(), 0, fromDay, toDay)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range periods {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", p.Begin, p.End, p.Length())
			}
			return tw.Flush()
		},
	}
	f.register(c)
	c.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	c.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	return c
}
