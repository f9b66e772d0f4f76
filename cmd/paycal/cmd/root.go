// Package cmd implements the paycal command line: offline holiday
// resolution, pay period walks and timesheet bill conversion.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paycal",
		Short: "Pay period and holiday calendar tools",
		Long: `paycal works with pay periods, company holidays and timesheet bills
without a running server.

Commands:
  holiday  - Parse and resolve holiday rules
  period   - Walk pay period chains
  bills    - Convert timesheet wire data`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newHolidayCmd(), newPeriodCmd(), newBillsCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		printError(root, err)
	}
	return err
}

func printError(c *cobra.Command, err error) {
	fmt.Fprintf(c.ErrOrStderr(), "error: %v\n", err)
}
