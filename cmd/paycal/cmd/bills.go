package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/paycal/timesheet"
)

func newBillsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "bills",
		Short: "Convert timesheet wire data",
	}
	c.AddCommand(newBillsDecodeCmd(), newBillsEncodeCmd())
	return c
}

func newBillsDecodeCmd() *cobra.Command {
	var (
		strict bool
		asJSON bool
	)
	c := &cobra.Command{
		Use:   "decode <data>",
		Short: "Decode ';'-separated bill records",
		Long: `Decodes timesheet wire data. Bad records are reported on stderr and
skipped unless --strict is set.

Examples:
  paycal bills decode "8_:20100602:5.00;9_3:20100603:2.50:standup"
  paycal bills decode --json "8_:20100602:5.00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			decode := timesheet.DecodeBills
			if strict {
				decode = timesheet.DecodeBillsStrict
			}
			bills, err := decode(args[0])
			if err != nil && strict {
				return err
			}
			for _, de := range timesheet.DecodeErrors(err) {
				fmt.Fprintf(c.ErrOrStderr(), "skipped: %v\n", de)
			}

			if asJSON {
				if bills == nil {
					bills = []timesheet.Bill{}
				}
				enc := json.NewEncoder(c.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(bills)
			}

			tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, b := range bills {
				assignment, reason := "-", ""
				if b.HasAssignment() {
					assignment = fmt.Sprint(*b.AssignmentID)
				}
				if b.HasReason() {
					reason = *b.Reason
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", b.TaskID, assignment, b.Day, b.Hours, reason)
			}
			fmt.Fprintf(tw, "total\t\t\t%s\t\n", timesheet.TotalHours(bills))
			return tw.Flush()
		},
	}
	c.Flags().BoolVar(&strict, "strict", false, "Fail when any record is malformed")
	c.Flags().BoolVar(&asJSON, "json", false, "Print bills as JSON")
	return c
}

func newBillsEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode",
		Short: "Encode a JSON array of bills read from stdin",
		Long: `Reads bills as JSON from stdin and prints their wire form.

Example:
  echo '[{"task_id":8,"day":"2010-06-02","hours":5}]' | paycal bills encode`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			var bills []timesheet.Bill
			if err := json.NewDecoder(c.InOrStdin()).Decode(&bills); err != nil {
				return fmt.Errorf("read bills: %w", err)
			}
			for i, b := range bills {
				if err := b.Validate(); err != nil {
					return fmt.Errorf("bill %d: %w", i, err)
				}
			}
			fmt.Fprintln(c.OutOrStdout(), timesheet.EncodeBills(bills))
			return nil
		},
	}
}
