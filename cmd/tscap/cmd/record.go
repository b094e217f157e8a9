package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/codec"
	"github.com/ssargent/tscap/pkg/di"
)

func newRecordCmd(c *di.Container) *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record [file]",
		Short: "Store one captured packet",
		Long: `Store the contents of a file, or stdin, as one packet in the capture store.
The capture time is --timestamp in epoch microseconds, or now.

Examples:
  tscap record packet.bin
  tscap record --timestamp 1500000123456 < packet.bin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := codec.Now()
			if raw, _ := cmd.Flags().GetString("timestamp"); raw != "" {
				parsed, err := codec.ParseTimestamp(raw)
				if err != nil {
					return err
				}
				ts = parsed
			}

			payload, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			store, err := c.OpenStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer store.Close()

			id, err := store.Append(ts, payload)
			if err != nil {
				return fmt.Errorf("failed to store packet: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	recordCmd.Flags().String("timestamp", "", "Capture time in epoch microseconds (default: now)")
	return recordCmd
}
