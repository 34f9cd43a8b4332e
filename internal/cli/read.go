package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

func newReadCmd(load func() (Settings, error)) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("specify a notification id or use --all")
			}

			s, err := load()
			if err != nil {
				return err
			}
			client, err := s.client(s.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			if all {
				if err := client.MarkAllRead(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all notifications marked read")
				return nil
			}

			id := notifications.ID(args[0])
			if err := client.MarkRead(cmd.Context(), id); err != nil {
				return fmt.Errorf("mark %s read: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notification %s marked read\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification read")
	return cmd
}

func newUnreadCmd(load func() (Settings, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Print the number of unread notifications",
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

			n, err := client.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
