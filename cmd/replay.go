package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	turnsview "github.com/bnema/aconomy-watch/internal/adapters/render/turns"
	"github.com/bnema/aconomy-watch/internal/application"
	"github.com/bnema/aconomy-watch/internal/domain"
)

const sessionTimeLayout = "2006-01-02 15:04:05"

func newSessionsCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List archived sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := application.NewArchiveService(store).Sessions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(sessions)
			}

			if len(sessions) == 0 {
				_, err := fmt.Fprintln(out, "no archived sessions")
				return err
			}

			writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(writer, "SESSION\tSTARTED\tTURNS\tSTATE\tENDPOINT")
			for _, session := range sessions {
				_, _ = fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\n",
					session.Handle.Short(),
					formatSessionTime(session.StartedAt),
					session.TurnCount,
					sessionState(session),
					session.Endpoint,
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print sessions as JSON")
	return cmd
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		showPrompt bool
	)

	cmd := &cobra.Command{
		Use:   "replay [session]",
		Short: "Render an archived session",
		Long:  "replay renders every turn of an archived session. The session is selected by handle prefix; without one the latest session is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openArchive()
			if err != nil {
				return err
			}
			defer store.Close()

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			archive := application.NewArchiveService(store)
			session, err := archive.Resolve(cmd.Context(), prefix)
			if err != nil {
				return err
			}

			turns, err := archive.Turns(cmd.Context(), session.Handle)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				for _, turn := range turns {
					data, err := application.EncodeTurn(turn)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintln(out, string(data)); err != nil {
						return err
					}
				}
				return nil
			}

			rendered, err := a.renderTurns(turns, turnsview.RenderOptions{
				ShowPrompt: showPrompt,
				Title:      fmt.Sprintf("session %s // %s // %s", session.Handle.Short(), session.Endpoint, sessionState(session)),
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(out, rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print one JSON turn per line")
	cmd.Flags().BoolVar(&showPrompt, "prompts", false, "include the full prompt of every turn")
	return cmd
}

func sessionState(session domain.ArchivedSession) string {
	switch {
	case session.Open():
		return "open"
	case session.FinalError != "":
		return string(session.FinalState) + ": " + session.FinalError
	default:
		return string(session.FinalState)
	}
}

func formatSessionTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(sessionTimeLayout)
}

