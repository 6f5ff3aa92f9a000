package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/aconomy-watch/internal/adapters/config"
	"github.com/bnema/aconomy-watch/internal/application"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration file",
	}

	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigSetEndpointCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		endpoint string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.Path
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("inspect config file: %w", err)
			}

			cfg, err := config.Defaults()
			if err != nil {
				return err
			}
			cfg.Stream.Endpoint = strings.TrimSpace(endpoint)

			if err := config.Save(path, cfg); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "stream endpoint to store, e.g. ws://localhost:8080/ws")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Encode(a.cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "# %s\n%s", a.cfg.Path, data); err != nil {
				return err
			}

			key, err := a.credentials.Load(cmd.Context())
			if err != nil {
				key = ""
				a.logger.Debug().Err(err).Msg("api key lookup failed")
			}
			_, err = fmt.Fprintf(out, "# api key: %s\n", application.MaskCredential(key))
			return err
		},
	}
}

func newConfigSetEndpointCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-endpoint <url>",
		Short: "Store the stream endpoint used by watch and tail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := strings.TrimSpace(args[0])
			if _, err := application.StreamURL(endpoint, ""); err != nil {
				return err
			}

			if err := config.SetEndpoint(a.cfg.Path, endpoint); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "stream endpoint set to %s\n", endpoint)
			return err
		},
	}
}
