package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/codec"
	"github.com/ssargent/tscap/pkg/di"
)

func newTrimCmd(c *di.Container) *cobra.Command {
	trimCmd := &cobra.Command{
		Use:   "trim",
		Short: "Delete packets captured before a timestamp",
		Long: `Delete every stored packet captured strictly before --before.

Example:
  tscap trim --before 1500000000000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := timestampFlag(cmd, "before")
			if err != nil {
				return err
			}

			loc, err := c.GetConfig().Location()
			if err != nil {
				return err
			}

			store, err := c.OpenStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer store.Close()

			removed, err := store.Trim(cmd.Context(), before)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d packets captured before %s\n",
				removed, codec.FormatInLocation(before, loc))
			return nil
		},
	}

	trimCmd.Flags().String("before", "", "Exclusive upper bound in epoch microseconds (required)")
	if err := trimCmd.MarkFlagRequired("before"); err != nil {
		panic(err)
	}
	return trimCmd
}
