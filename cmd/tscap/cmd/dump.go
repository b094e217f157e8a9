package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/codec"
	"github.com/ssargent/tscap/pkg/di"
	"github.com/ssargent/tscap/pkg/storage"
)

func newDumpCmd(c *di.Container) *cobra.Command {
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print stored packets in capture order",
		Long: `Print stored packets captured in [--from, --to). Each packet is a header
line with its capture date, ID and size, followed by its hex dump.

Examples:
  tscap dump
  tscap dump --from 1500000000000000 --to 1500000060000000 --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := timestampFlag(cmd, "from")
			if err != nil {
				return err
			}
			to, err := timestampFlag(cmd, "to")
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
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

			out := cmd.OutOrStdout()
			return store.Scan(cmd.Context(), from, to, limit, func(p *storage.Packet) error {
				fmt.Fprintf(out, "%s %s (%d bytes)\n", codec.FormatInLocation(p.Timestamp, loc), p.ID, len(p.Payload))
				if len(p.Payload) > 0 {
					fmt.Fprintln(out, codec.FormatHexDump(p.Payload))
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	dumpCmd.Flags().String("from", "", "Inclusive lower bound in epoch microseconds")
	dumpCmd.Flags().String("to", "", "Exclusive upper bound in epoch microseconds (default: unbounded)")
	dumpCmd.Flags().Int("limit", 0, "Maximum packets to print (0 for all)")
	return dumpCmd
}

// timestampFlag parses an optional epoch microsecond flag. Unset means 0.
func timestampFlag(cmd *cobra.Command, name string) (uint64, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return 0, nil
	}
	ts, err := codec.ParseTimestamp(raw)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return ts, nil
}
