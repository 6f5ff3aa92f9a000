package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	turnsview "github.com/bnema/aconomy-watch/internal/adapters/render/turns"
	"github.com/bnema/aconomy-watch/internal/application"
	"github.com/bnema/aconomy-watch/internal/domain"
)

var errNoCredential = errors.New("no API key stored; run `aw key set` or pass --api-key")

type tailOptions struct {
	endpoint   string
	apiKey     string
	jsonOutput bool
	showPrompt bool
	quiet      bool
}

func newTailCmd(a *app) *cobra.Command {
	var opts tailOptions

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print turns as they arrive without the interactive viewer",
		Long:  "tail starts a session, prints every turn as it is received and exits when the server ends the stream.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTail(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "stream endpoint, e.g. ws://localhost:8080/ws (default from config)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key to use and store for later sessions")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print one JSON turn per line")
	cmd.Flags().BoolVar(&opts.showPrompt, "prompts", false, "include the full prompt of every turn")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not show the connection spinner")

	return cmd
}

func (a *app) runTail(ctx context.Context, opts tailOptions, stdout, stderr io.Writer) error {
	endpoint := a.resolveEndpoint(opts.endpoint)
	credential, err := a.resolveCredential(ctx, opts.apiKey)
	if err != nil {
		return err
	}
	if credential == "" {
		return errNoCredential
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

		if err := rt.controller.Start(ctx, endpoint, credential); err != nil {
			return err
		}

		if !opts.quiet {
			label := fmt.Sprintf("Connecting to %s...", endpoint)
			err := runConnectSpinner(ctx, stderr, label, func(ctx context.Context) error {
				return waitWhileLoading(ctx, rt.controller, updates)
			})
			if err != nil {
				return err
			}
		}

		printed := 0
		for {
			// Status is read before the snapshot: every turn of a finished session is
			// appended before its final status is published.
			status := rt.controller.Status()
			turns := rt.controller.Snapshot()
			for ; printed < len(turns); printed++ {
				if err := printTurn(stdout, turns[printed], opts); err != nil {
					return err
				}
			}

			switch status.State {
			case domain.SessionIdle:
				return nil
			case domain.SessionError:
				return fmt.Errorf("stream failed: %s", status.Err)
			}

			select {
			case n, ok := <-updates:
				if !ok {
					return nil
				}
				if n.Kind == domain.NotifyParseFailed {
					_, _ = fmt.Fprintf(stderr, "skipped frame: %s\n", n.Err)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func waitWhileLoading(ctx context.Context, controller *application.Controller, updates <-chan domain.Notification) error {
	for controller.Status().State == domain.SessionLoading {
		select {
		case _, ok := <-updates:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func printTurn(w io.Writer, turn domain.TurnRecord, opts tailOptions) error {
	if opts.jsonOutput {
		data, err := application.EncodeTurn(turn)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	_, err := fmt.Fprintln(w, turnsview.ViewTurn(turn, turnsview.RenderOptions{ShowPrompt: opts.showPrompt}))
	return err
}

func (a *app) resolveEndpoint(flagValue string) string {
	if endpoint := strings.TrimSpace(flagValue); endpoint != "" {
		return endpoint
	}
	return a.cfg.Stream.Endpoint
}

// resolveCredential returns the API key from the flag, saving it for later sessions, or
// the stored one. An empty result means no key is known.
func (a *app) resolveCredential(ctx context.Context, flagValue string) (string, error) {
	if value := strings.TrimSpace(flagValue); value != "" {
		if err := a.credentials.Save(ctx, value); err != nil {
			return "", fmt.Errorf("save api key: %w", err)
		}
		return value, nil
	}

	value, err := a.credentials.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load api key: %w", err)
	}
	return value, nil
}
