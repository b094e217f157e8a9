/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/config"
	"github.com/ssargent/tscap/pkg/di"
	"github.com/ssargent/tscap/pkg/logging"
)

// skipConfig marks commands that run before a config file exists
const skipConfig = "tscap.skip-config"

var container *di.Container

// SetContainer injects the dependency container used by Execute
func SetContainer(c *di.Container) {
	container = c
}

// NewRootCmd builds the command tree around c
func NewRootCmd(c *di.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tscap",
		Short: "tscap - packet capture timestamps and storage",
		Long: `tscap packs capture timestamps into the 8-byte big-endian form used as
message keys, renders them for people, and keeps captured packets in a
local time-ordered store that can be served over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			return loadConfig(cmd, c)
		},
	}

	rootCmd.SetFlagErrorFunc(negativeTimestampHint)

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/tscap/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the capture store (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(
		newPackCmd(),
		newUnpackCmd(c),
		newDateCmd(c),
		newHexDumpCmd(),
		newRecordCmd(c),
		newDumpCmd(c),
		newTrimCmd(c),
		newServeCmd(c),
		newInitCmd(),
	)

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if container == nil {
		container = di.NewContainer()
	}
	if err := NewRootCmd(container).Execute(); err != nil {
		os.Exit(1)
	}
}

// negativeTimestampHint explains the flag error pflag reports for a negative
// number argument such as "-1".
func negativeTimestampHint(cmd *cobra.Command, err error) error {
	msg := err.Error()
	if i := strings.LastIndex(msg, " in -"); i >= 0 {
		if _, perr := strconv.ParseFloat(msg[i+len(" in "):], 64); perr == nil {
			return fmt.Errorf("%w (put -- before negative values, e.g. 'tscap %s -- %s')",
				err, cmd.Name(), msg[i+len(" in "):])
		}
	}
	return err
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	return path
}

// loadConfig reads the config file once, applies flag overrides and hands the
// result to the container. A missing file means defaults.
func loadConfig(cmd *cobra.Command, c *di.Container) error {
	path := configPath(cmd)

	cfg := config.DefaultConfig()
	if config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	c.SetConfig(cfg, logger)
	return nil
}

// readInput returns the contents of the named file, or stdin when no file
// (or "-") is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}
