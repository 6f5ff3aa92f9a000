package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/aconomy-watch/internal/adapters/tui"
)

type watchOptions struct {
	endpoint string
	apiKey   string
	noStart  bool
}

func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive turn viewer",
		Long:  "watch opens a full-screen viewer. Press s to start a session, x to stop it, p to toggle prompts, k to enter an API key and q to quit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Console logging would draw over the viewer; keep the log file only.
			if err := a.initLogger(a.cfg.Log, nil); err != nil {
				return err
			}
			a.refreshLogger()

			return a.runWatch(cmd.Context(), opts,
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "stream endpoint, e.g. ws://localhost:8080/ws (default from config)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key to use and store for later sessions")
	cmd.Flags().BoolVar(&opts.noStart, "no-start", false, "do not start a session until s is pressed")

	return cmd
}

func (a *app) runWatch(ctx context.Context, opts watchOptions, programOpts ...tea.ProgramOption) error {
	endpoint := a.resolveEndpoint(opts.endpoint)
	credential, err := a.resolveCredential(ctx, opts.apiKey)
	if err != nil {
		return err
	}

	rt, err := a.newSessionRuntime()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.close(); closeErr != nil {
			a.logger.Warn().Err(closeErr).Msg("close session runtime")
		}
	}()

	return rt.run(ctx, func(ctx context.Context) error {
		updates, err := rt.bus.Subscribe(ctx)
		if err != nil {
			return err
		}

		return tui.Run(ctx, tui.Config{
			Session:       rt.controller,
			Credentials:   a.credentials,
			Notifications: updates,
			Endpoint:      endpoint,
			Credential:    credential,
			AutoStart:     !opts.noStart,
		}, programOpts...)
	})
}
