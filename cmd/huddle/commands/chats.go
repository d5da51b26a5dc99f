package commands

import (
	"fmt"
	"strings"

	"github.com/huddle-sports/huddle-client/pkg/pagination"
	"github.com/huddle-sports/huddle-client/pkg/store"
	"github.com/spf13/cobra"
)

func chatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Read and write event chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.LoadChats(cmd.Context(), a.svc, a.state, 0, a.cfg.Feed.PageSize); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range a.state.State().Chats.Items {
				last := ""
				if c.LastMessage != nil {
					last = c.LastMessage.Sender.Name + ": " + c.LastMessage.Text
				}
				fmt.Fprintf(out, "%-8s %-24s (%d unread)  %s\n", c.ID, c.Title, c.UnreadCount, last)
			}
			return nil
		},
	}
	cmd.AddCommand(chatMessagesCmd(a), chatSendCmd(a))
	return cmd
}

func chatMessagesCmd(a *app) *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "messages [chat-id]",
		Short: "Show a chat's messages, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed := pagination.NewFeed("messages", a.svc.Chats.MessagesFeed(args[0]),
				pagination.Config{PageSize: a.cfg.Feed.PageSize})
			defer feed.Close()

			ctx := cmd.Context()
			if err := feed.Start(ctx, args[0]); err != nil {
				return err
			}
			for loaded := 1; pages <= 0 || loaded < pages; loaded++ {
				more, err := feed.LoadMore(ctx)
				if err != nil {
					return err
				}
				if !more {
					break
				}
			}

			out := cmd.OutOrStdout()
			for _, m := range feed.Items() {
				fmt.Fprintf(out, "[%s] %s: %s\n", m.SentAt.Local().Format("02 Jan 15:04"), m.Sender.Name, m.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load (0 = all)")
	return cmd
}

func chatSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send [chat-id] [text...]",
		Short: "Send a message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.svc.Chats.Send(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", msg.ID)
			return nil
		},
	}
}
