package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/codec"
)

func newPackCmd() *cobra.Command {
	packCmd := &cobra.Command{
		Use:   "pack <timestamp>",
		Short: "Pack epoch microseconds into 8 big-endian bytes",
		Long: `Pack a capture timestamp, given in microseconds since the Unix epoch, into
the 8-byte big-endian form used as a message key. The bytes are printed as hex
unless --raw is set. Values outside [0, 2^64-1] are rejected; a negative
value must follow -- so it is not read as a flag.

Examples:
  tscap pack 1500000123456
  tscap pack --raw 1500000123456 > key.bin
  tscap pack -- -1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := codec.ParseTimestamp(args[0])
			if err != nil {
				return err
			}

			packed := codec.Pack(ts)
			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				_, err = cmd.OutOrStdout().Write(packed)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(packed))
			return nil
		},
	}

	packCmd.Flags().Bool("raw", false, "Write the raw bytes instead of hex")
	return packCmd
}
