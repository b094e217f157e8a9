package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/codec"
	"github.com/ssargent/tscap/pkg/di"
)

func newDateCmd(c *di.Container) *cobra.Command {
	dateCmd := &cobra.Command{
		Use:   "date <timestamp>",
		Short: "Render epoch microseconds as a date",
		Long: `Render a capture timestamp as YYYY-MM-DD HH:MM:SS.ffffff in the configured
display timezone (local time by default). A negative value must follow --
so it is not read as a flag.

Examples:
  tscap date 1500000123456
  tscap date --utc 1500000123456`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := codec.ParseTimestamp(args[0])
			if err != nil {
				return err
			}

			loc, err := c.GetConfig().Location()
			if err != nil {
				return err
			}
			if utc, _ := cmd.Flags().GetBool("utc"); utc {
				loc = time.UTC
			}

			fmt.Fprintln(cmd.OutOrStdout(), codec.FormatInLocation(ts, loc))
			return nil
		},
	}

	dateCmd.Flags().Bool("utc", false, "Render in UTC regardless of config")
	return dateCmd
}
