package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
)

type holidayFlags struct {
	year    int
	observe bool
}

func (f *holidayFlags) register(c *cobra.Command) {
	c.Flags().IntVar(&f.year, "year", 0, "Year to resolve (default: current year)")
	c.Flags().BoolVar(&f.observe, "observe-weekends", false, "Move observed dates off weekends")
}

func (f *holidayFlags) resolver() holiday.Resolver {
	return holiday.Resolver{ShiftObserved: f.observe}
}

func (f *holidayFlags) resolveYear() int {
	if f.year != 0 {
		return f.year
	}
	return calendar.Today().Year()
}

func newHolidayCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "holiday",
		Short: "Parse and resolve holiday rules",
	}
	c.AddCommand(newHolidayResolveCmd(), newHolidayDefaultsCmd())
	return c
}

func newHolidayResolveCmd() *cobra.Command {
	var f holidayFlags
	c := &cobra.Command{
		Use:   "resolve <config>",
		Short: "Resolve a holiday rule to a day",
		Long: `Parses a holiday configuration and prints the day it falls on.

Examples:
  paycal holiday resolve "4th Thursday in November" --year 2024
  paycal holiday resolve "July 4th Observance" --year 2026 --observe-weekends`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			rule, err := holiday.Parse(args[0])
			if err != nil {
				return err
			}
			day := f.resolver().Resolve(rule, f.resolveYear())
			fmt.Fprintf(c.OutOrStdout(), "%s\t%s\t%s\n", day, day.Weekday(), rule)
			return nil
		},
	}
	f.register(c)
	return c
}

func newHolidayDefaultsCmd() *cobra.Command {
	var f holidayFlags
	c := &cobra.Command{
		Use:   "defaults",
		Short: "List the federal holidays for a year",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			occ, err := f.resolver().ForYear(holiday.Defaults(0), f.resolveYear())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, o := range occ {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Day, o.Day.Weekday(), o.Holiday.Description, o.Holiday.Config)
			}
			return tw.Flush()
		},
	}
	f.register(c)
	return c
}
