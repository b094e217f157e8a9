package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/codec"
	"github.com/ssargent/tscap/pkg/di"
)

func newUnpackCmd(c *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "unpack [hex]",
		Short: "Decode a packed timestamp",
		Long: `Decode the first 8 bytes of a packed timestamp and print it as epoch
microseconds followed by its date. The bytes come from the hex argument, or raw
from stdin when no argument is given. Bytes after the eighth are ignored.

Examples:
  tscap unpack 0000015d3ef97a40
  tscap pack --raw 42 | tscap unpack`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if len(args) == 1 {
				raw, err = hex.DecodeString(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("invalid hex: %w", err)
				}
			} else {
				raw, err = readInput(cmd, nil)
				if err != nil {
					return err
				}
			}

			ts, err := codec.Unpack(raw)
			if err != nil {
				return err
			}

			loc, err := c.GetConfig().Location()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", ts, codec.FormatInLocation(ts, loc))
			return nil
		},
	}
}
