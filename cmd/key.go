package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/aconomy-watch/internal/application"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(newKeySetCmd(a), newKeyShowCmd(a), newKeyRemoveCmd(a))
	return cmd
}

func newKeySetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set [value]",
		Short: "Store the API key sent to the simulation server",
		Long:  "set stores the API key. Without an argument the key is read from the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 1 {
				value = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read api key from stdin: %w", err)
				}
				value = strings.TrimSpace(line)
			}

			if err := a.credentials.Save(cmd.Context(), value); err != nil {
				return fmt.Errorf("save api key: %w", err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "API key saved (%s)\n", application.MaskCredential(value))
			return err
		},
	}
}

func newKeyShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored API key, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := a.credentials.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load api key: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), application.MaskCredential(value))
			return err
		},
	}
}

func newKeyRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm"},
		Short:   "Forget the stored API key",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.credentials.Forget(cmd.Context()); err != nil {
				return fmt.Errorf("remove api key: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
			return err
		},
	}
}
