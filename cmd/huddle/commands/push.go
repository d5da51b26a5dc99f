package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pushCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Manage push notification registration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "register",
			Short: "Register this device for push notifications",
			RunE: func(cmd *cobra.Command, args []string) error {
				token, err := a.push.Register(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered device %s\n", token)
				return nil
			},
		},
		&cobra.Command{
			Use:   "unregister",
			Short: "Stop push notifications to this device",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.push.Unregister(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Device unregistered")
				return nil
			},
		},
	)
	return cmd
}
