package commands

import (
	"fmt"

	"github.com/huddle-sports/huddle-client/pkg/store"
	"github.com/spf13/cobra"
)

func notificationsCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.LoadNotifications(cmd.Context(), a.svc, a.state, page, a.cfg.Feed.PageSize); err != nil {
				return err
			}
			n := a.state.State().Notifications
			out := cmd.OutOrStdout()
			for _, item := range n.Items {
				mark := " "
				if !item.Read {
					mark = "•"
				}
				fmt.Fprintf(out, "%s %-6s %s: %s\n", mark, item.ID, item.Title, item.Body)
			}
			fmt.Fprintf(out, "%d unread\n", n.Unread)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page to show")
	cmd.AddCommand(&cobra.Command{
		Use:   "read [notification-id]",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.MarkNotificationRead(cmd.Context(), a.svc, a.state, args[0])
		},
	})
	return cmd
}
