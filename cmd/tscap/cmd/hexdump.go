package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/codec"
)

func newHexDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hexdump [file]",
		Short: "Print bytes as wrapped hex",
		Long: `Print the contents of a file, or stdin, as space separated lowercase hex
pairs wrapped at 48 characters per line.

Examples:
  tscap hexdump packet.bin
  printf 'GET /' | tscap hexdump`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), codec.FormatHexDump(data))
			return nil
		},
	}
}
