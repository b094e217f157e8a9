/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config with a generated API key",
		Long: `Create the tscap configuration file with defaults and a freshly generated
API key. An existing file is left alone unless --force is set.

Examples:
  tscap init
  tscap init --config ./tscap.yaml --data-dir ./captures --print-key`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			dataDir, _ := cmd.Flags().GetString("data-dir")
			force, _ := cmd.Flags().GetBool("force")
			printKey, _ := cmd.Flags().GetBool("print-key")

			out := cmd.OutOrStdout()
			if config.ConfigExists(path) && !force {
				fmt.Fprintf(out, "Config already exists at %s. Use --force to overwrite.\n", path)
				return nil
			}

			cfg, err := config.BootstrapConfig(path, dataDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Config written to %s\n", path)
			fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
			if printKey {
				fmt.Fprintf(out, "API key: %s\n", cfg.Security.APIKey)
			}
			fmt.Fprintf(out, "\nStart the server with:\n  tscap serve --config %s\n", path)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing config")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
	return initCmd
}
