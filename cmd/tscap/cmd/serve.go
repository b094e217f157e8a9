/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/tscap/pkg/api"
	"github.com/ssargent/tscap/pkg/di"
)

func newServeCmd(c *di.Container) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the tscap REST API server over the capture store. Requests must carry
the configured API key in the X-API-Key header. Prometheus metrics are served
at /metrics and the API description at /swagger/.

Examples:
  tscap serve
  tscap serve --port 9000 --bind 0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.GetConfig()
			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("bind") {
				cfg.Bind, _ = cmd.Flags().GetString("bind")
			}

			if cfg.Security.APIKey == "" {
				return errors.New("no api key configured (run 'tscap init' first)")
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			store, err := c.OpenStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Starting tscap server on %s\n", cfg.Addr())
			fmt.Fprintf(cmd.ErrOrStderr(), "Data directory: %s\n", cfg.DataDir)

			starter := c.GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, store, api.ServerConfig{
				Addr:     cfg.Addr(),
				APIKey:   cfg.Security.APIKey,
				Location: loc,
			}, c.GetLogger())
		},
	}

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to (overrides config)")
	return serveCmd
}
