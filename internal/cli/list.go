package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifystream/internal/tui"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

func newListCmd(load func() (Settings, error)) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the recent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			client, err := s.client(s.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			list, err := client.List(cmd.Context())
			if err != nil {
				return err
			}

			inbox := notifications.NewInbox()
			inbox.Merge(list)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(inbox.Items())
			}

			p := tui.NewPresenter(cmd.OutOrStdout(), s.Client.BaseURL)
			p.Panel(inbox.Items())
			p.Badge(inbox.UnreadCount())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
